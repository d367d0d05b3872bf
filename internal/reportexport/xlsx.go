// Package reportexport renders credit reports as CSV and XLSX files.
package reportexport

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"creditscope/internal/domain"
)

const (
	summarySheet   = "Summary"
	documentsSheet = "Documents"

	// XLSXContentType is the mime type of the workbook.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// CSVContentType is the mime type of the CSV export.
	CSVContentType = "text/csv; charset=utf-8"
)

// WriteXLSX writes report as a workbook with a Summary and a Documents sheet.
func WriteXLSX(w io.Writer, report *domain.CreditReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(documentsSheet); err != nil {
		return fmt.Errorf("creating documents sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	if err := writeSummary(f, report, bold); err != nil {
		return err
	}
	if err := writeDocuments(f, report.DocumentAnalysis, bold, wrap); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report *domain.CreditReport, bold int) error {
	generated := ""
	if !report.Metadata.GeneratedAt.IsZero() {
		generated = report.Metadata.GeneratedAt.Format(time.RFC3339)
	}
	types := make([]string, 0, len(report.Metadata.DocumentTypes))
	for _, t := range report.Metadata.DocumentTypes {
		types = append(types, string(t))
	}

	rows := [][]interface{}{
		{"Score", report.Score},
		{"Rating", string(report.Rating)},
		{"Summary", report.Summary},
		{"Financial Health", report.DetailedAnalysis.FinancialHealth},
		{"Cash Flow", report.DetailedAnalysis.CashFlow},
		{"Debt Management", report.DetailedAnalysis.DebtManagement},
		{"Compliance", report.DetailedAnalysis.Compliance},
		{"Strengths", strings.Join(report.Strengths, "\n")},
		{"Risk Factors", strings.Join(report.RiskFactors, "\n")},
		{"Recommendations", strings.Join(report.Recommendations, "\n")},
		{"Documents", report.Metadata.DocumentCount},
		{"Document Types", strings.Join(types, ", ")},
		{"Source", string(report.Metadata.Source)},
		{"Model", report.Metadata.Model},
		{"Batch ID", report.Metadata.BatchID},
		{"Generated At", generated},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(1, len(rows))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 100)
}

func writeDocuments(f *excelize.File, docs []domain.DocumentAnalysisResult, bold, wrap int) error {
	header := make([]interface{}, len(documentColumns))
	for i, c := range documentColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(documentsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing documents header: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(documentColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(documentsSheet, "A1", lastHeader, bold); err != nil {
		return err
	}

	for i := range docs {
		values := documentToRow(&docs[i])
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(documentsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing document row %d: %w", i+1, err)
		}
	}
	if len(docs) > 0 {
		last, err := excelize.CoordinatesToCellName(len(documentColumns), len(docs)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(documentsSheet, "A2", last, wrap); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(documentsSheet, "A", "F", 18); err != nil {
		return err
	}
	return f.SetColWidth(documentsSheet, "G", "H", 80)
}
