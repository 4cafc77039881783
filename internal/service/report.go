package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

// MonthlyReportPDF renders the period's overview as an A4 table.
func (s *Service) MonthlyReportPDF(ctx context.Context, period domain.Period) ([]byte, error) {
	overview, err := s.Overview(ctx, period)
	if err != nil {
		return nil, err
	}
	return renderOverviewPDF(overview)
}

func renderOverviewPDF(overview domain.OvertimeOverview) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; names outside it are replaced, ids stay readable.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Overtime report %s", overview.Period))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", overview.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(6)
	for _, sourceErr := range overview.SourceErrors {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Incomplete: %s", sourceErr.Message)))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{48, 52, 24, 24, 24, 18}
	headers := []string{"Employee", "ID", "Independent", "Schedule", "Total", "Flag"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, group := range overview.Groups {
		flag := ""
		if group.Reconciliation != "" {
			flag = "check"
		}
		cells := []string{
			tr(group.Employee.Name),
			group.Employee.ID,
			fmt.Sprintf("%.1f", group.IndependentHours),
			fmt.Sprintf("%.1f", group.ScheduleHours),
			fmt.Sprintf("%.1f", group.TotalHours),
			flag,
		}
		for i, cell := range cells {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(widths[0]+widths[1], 7, fmt.Sprintf("Total (%d employees)", overview.Totals.Employees), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[2], 7, fmt.Sprintf("%.1f", overview.Totals.IndependentHours), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.1f", overview.Totals.ScheduleHours), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.1f", overview.Totals.TotalHours), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[5], 7, "", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
