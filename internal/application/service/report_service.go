package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// CommissionRow is one booking's line in the commission report.
type CommissionRow struct {
	BLReference string
	ClientName  string
	Revenue     valueobject.Money
	Costs       valueobject.Money
	Margin      valueobject.Money
	Commission  valueobject.Money
}

// CommissionReport summarizes agent commission across all bookings.
type CommissionReport struct {
	Rows            []CommissionRow
	TotalRevenue    valueobject.Money
	TotalCosts      valueobject.Money
	TotalMargin     valueobject.Money
	TotalCommission valueobject.Money
	CommissionRate  decimal.Decimal
}

// ReportExporter writes a commission report to a file and returns its
// path. Implemented by the Excel export adapter.
type ReportExporter interface {
	ExportCommissionReport(report *CommissionReport) (string, error)
}

// ReportService builds commission reports over the booking ledger.
type ReportService interface {
	GenerateCommissionReport(ctx context.Context) (*CommissionReport, error)
	ExportCommissionReport(ctx context.Context) (string, error)
}

type reportServiceImpl struct {
	bookingRepo    port.BookingRepository
	exporter       ReportExporter
	commissionRate decimal.Decimal
	logger         Logger
}

// NewReportService creates a ReportService.
func NewReportService(
	bookingRepo port.BookingRepository,
	exporter ReportExporter,
	commissionRate decimal.Decimal,
	logger Logger,
) ReportService {
	if commissionRate.IsZero() {
		commissionRate = entity.DefaultCommissionRate
	}
	return &reportServiceImpl{
		bookingRepo:    bookingRepo,
		exporter:       exporter,
		commissionRate: commissionRate,
		logger:         logger,
	}
}

// GenerateCommissionReport computes per-booking margins and commission,
// ordered by BL reference.
func (s *reportServiceImpl) GenerateCommissionReport(ctx context.Context) (*CommissionReport, error) {
	bookings, err := s.bookingRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &CommissionReport{
		TotalRevenue:    valueobject.Zero(),
		TotalCosts:      valueobject.Zero(),
		TotalMargin:     valueobject.Zero(),
		TotalCommission: valueobject.Zero(),
		CommissionRate:  s.commissionRate,
	}

	for _, b := range bookings {
		clientName := ""
		if b.Client != nil {
			clientName = b.Client.Name
		}
		row := CommissionRow{
			BLReference: b.BLReference,
			ClientName:  clientName,
			Revenue:     b.TotalRevenue(),
			Costs:       b.TotalCosts(),
			Margin:      b.Margin(),
			Commission:  b.CalculateAgentCommission(s.commissionRate),
		}
		report.Rows = append(report.Rows, row)
		report.TotalRevenue = report.TotalRevenue.Add(row.Revenue)
		report.TotalCosts = report.TotalCosts.Add(row.Costs)
		report.TotalMargin = report.TotalMargin.Add(row.Margin)
		report.TotalCommission = report.TotalCommission.Add(row.Commission)
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].BLReference < report.Rows[j].BLReference
	})
	return report, nil
}

// ExportCommissionReport generates the report and writes it to an Excel
// workbook, returning the file path.
func (s *reportServiceImpl) ExportCommissionReport(ctx context.Context) (string, error) {
	report, err := s.GenerateCommissionReport(ctx)
	if err != nil {
		return "", err
	}
	path, err := s.exporter.ExportCommissionReport(report)
	if err != nil {
		return "", err
	}
	s.logger.Info("Commission report exported", "path", path, "rows", len(report.Rows))
	return path, nil
}
