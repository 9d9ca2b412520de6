package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type mockExporter struct {
	exportFunc func(report *CommissionReport) (string, error)
	lastReport *CommissionReport
}

func (m *mockExporter) ExportCommissionReport(report *CommissionReport) (string, error) {
	m.lastReport = report
	if m.exportFunc != nil {
		return m.exportFunc(report)
	}
	return "data/reports/commission.xlsx", nil
}

func TestGenerateCommissionReport(t *testing.T) {
	repo := newMockBookingRepo()
	seedBooking(repo, "BL-B", 50000, 70000) // loss
	seedBooking(repo, "BL-A", 100000, 60000)

	svc := NewReportService(repo, &mockExporter{}, decimal.NewFromFloat(0.50), nopLogger{})

	report, err := svc.GenerateCommissionReport(context.Background())
	if err != nil {
		t.Fatalf("GenerateCommissionReport: %v", err)
	}

	if len(report.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(report.Rows))
	}
	// Rows ordered by BL reference.
	if report.Rows[0].BLReference != "BL-A" || report.Rows[1].BLReference != "BL-B" {
		t.Errorf("rows out of order: %s, %s", report.Rows[0].BLReference, report.Rows[1].BLReference)
	}

	if got := report.TotalRevenue.String(); got != "1500.00" {
		t.Errorf("TotalRevenue = %s, want 1500.00", got)
	}
	if got := report.TotalCosts.String(); got != "1300.00" {
		t.Errorf("TotalCosts = %s, want 1300.00", got)
	}
	if got := report.TotalMargin.String(); got != "200.00" {
		t.Errorf("TotalMargin = %s, want 200.00", got)
	}
	// Loss bookings reduce the commission total.
	if got := report.TotalCommission.String(); got != "100.00" {
		t.Errorf("TotalCommission = %s, want 100.00", got)
	}
	if got := report.Rows[1].Commission.String(); got != "-100.00" {
		t.Errorf("BL-B commission = %s, want -100.00", got)
	}
}

func TestExportCommissionReport(t *testing.T) {
	repo := newMockBookingRepo()
	seedBooking(repo, "BL-A", 100000, 60000)

	exporter := &mockExporter{}
	svc := NewReportService(repo, exporter, decimal.NewFromFloat(0.50), nopLogger{})

	path, err := svc.ExportCommissionReport(context.Background())
	if err != nil {
		t.Fatalf("ExportCommissionReport: %v", err)
	}
	if path != "data/reports/commission.xlsx" {
		t.Errorf("path = %s", path)
	}
	if exporter.lastReport == nil || len(exporter.lastReport.Rows) != 1 {
		t.Error("exporter did not receive the generated report")
	}
}

func TestExportCommissionReportPropagatesFailure(t *testing.T) {
	repo := newMockBookingRepo()
	exporter := &mockExporter{
		exportFunc: func(report *CommissionReport) (string, error) {
			return "", errors.New("disk full")
		},
	}
	svc := NewReportService(repo, exporter, decimal.Zero, nopLogger{})

	if _, err := svc.ExportCommissionReport(context.Background()); err == nil {
		t.Error("expected exporter failure to propagate")
	}
}
