// Package export writes reports to Excel workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/service"
)

const commissionSheet = "Commission"

// ExcelExporter implements service.ReportExporter, writing commission
// reports as .xlsx files into an output directory.
type ExcelExporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewExcelExporter creates an Excel exporter.
func NewExcelExporter(outputDir string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{outputDir: outputDir, logger: logger}
}

// ExportCommissionReport writes the report to a timestamped workbook and
// returns its path.
func (e *ExcelExporter) ExportCommissionReport(report *service.CommissionReport) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(commissionSheet)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"BL Reference", "Client", "Revenue", "Costs", "Margin", "Commission"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(commissionSheet, cell, h); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err == nil {
		_ = f.SetCellStyle(commissionSheet, "A1", "F1", headerStyle)
	}

	row := 2
	for _, r := range report.Rows {
		values := []interface{}{
			r.BLReference,
			r.ClientName,
			r.Revenue.Float64(),
			r.Costs.Float64(),
			r.Margin.Float64(),
			r.Commission.Float64(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(commissionSheet, cell, v); err != nil {
				return "", fmt.Errorf("failed to write row: %w", err)
			}
		}
		row++
	}

	totals := []interface{}{
		"TOTAL",
		fmt.Sprintf("rate %s", report.CommissionRate.String()),
		report.TotalRevenue.Float64(),
		report.TotalCosts.Float64(),
		report.TotalMargin.Float64(),
		report.TotalCommission.Float64(),
	}
	for i, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(commissionSheet, cell, v); err != nil {
			return "", fmt.Errorf("failed to write totals: %w", err)
		}
	}

	_ = f.SetColWidth(commissionSheet, "A", "B", 22)
	_ = f.SetColWidth(commissionSheet, "C", "F", 14)

	path := filepath.Join(e.outputDir,
		fmt.Sprintf("commission_report_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Commission report written",
		zap.String("path", path), zap.Int("rows", len(report.Rows)))
	return path, nil
}

// Verify interface compliance
var _ service.ReportExporter = (*ExcelExporter)(nil)
