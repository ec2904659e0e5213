// Package export renders a finished report as an XLSX workbook or a PDF document.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/chrissnell/solarstats/internal/analysis"
	"github.com/chrissnell/solarstats/internal/dashboard"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ErrNotExportable is returned for reports without analysis sections
var ErrNotExportable = errors.New("export: report has no data")

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ParseFormat resolves a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Render encodes r in format f
func Render(r *dashboard.Report, f Format) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return XLSX(r)
	case FormatPDF:
		return PDF(r)
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

func summaryRows(r *dashboard.Report) [][2]string {
	s := r.Summary
	rows := [][2]string{
		{"Column", r.Column},
		{"Rows", fmt.Sprint(r.Filter.Rows)},
		{"Values", fmt.Sprint(s.Count)},
		{"Missing (excluded)", fmt.Sprint(s.Missing)},
		{"Mean", s.Mean.String()},
		{"Median", s.Median.String()},
		{"Std dev", s.StdDev.String()},
		{"Min", s.Min.String()},
		{"Max", s.Max.String()},
	}
	if !r.Filter.Start.IsZero() {
		rows = append(rows,
			[2]string{"From", r.Filter.Start.Format("2006-01-02")},
			[2]string{"To", r.Filter.End.Format("2006-01-02")})
	}
	if r.Correlation != nil && r.Correlation.Fit.Defined {
		fit := r.Correlation.Fit
		rows = append(rows,
			[2]string{"Correlated with", r.CorrelationColumn},
			[2]string{"Slope", fit.Slope.String()},
			[2]string{"Intercept", fit.Intercept.String()},
			[2]string{"R squared", fit.RSquared.String()})
	}
	return rows
}

func exportable(r *dashboard.Report) error {
	if r == nil || !r.Status.OK() || r.Summary == nil || r.Trend == nil || r.Hourly == nil {
		return ErrNotExportable
	}
	return nil
}

// cellValue keeps undefined statistics as empty cells
func cellValue(v analysis.Value) any {
	if !v.Defined() {
		return ""
	}
	return v.Float()
}

// XLSX builds a workbook with summary, trend and hourly sheets
func XLSX(r *dashboard.Report) ([]byte, error) {
	if err := exportable(r); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	trendSheet := "trend"
	hourlySheet := "hourly"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, sheet := range []string{trendSheet, hourlySheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Solar generation report")
	for i, row := range summaryRows(r) {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row[1])
	}

	_ = f.SetCellValue(trendSheet, "A1", "Bucket start ("+string(r.Trend.Bucket)+")")
	_ = f.SetCellValue(trendSheet, "B1", r.Column)
	_ = f.SetCellValue(trendSheet, "C1", "Rows")
	_ = f.SetCellValue(trendSheet, "D1", "Missing")
	for i, p := range r.Trend.Points {
		row := i + 2
		_ = f.SetCellValue(trendSheet, fmt.Sprintf("A%d", row), p.Start.Format("2006-01-02 15:04"))
		_ = f.SetCellValue(trendSheet, fmt.Sprintf("B%d", row), cellValue(p.Value))
		_ = f.SetCellValue(trendSheet, fmt.Sprintf("C%d", row), p.Rows)
		_ = f.SetCellValue(trendSheet, fmt.Sprintf("D%d", row), p.Missing)
	}

	_ = f.SetCellValue(hourlySheet, "A1", "Hour")
	_ = f.SetCellValue(hourlySheet, "B1", "Mean "+r.Column)
	_ = f.SetCellValue(hourlySheet, "C1", "Samples")
	for i, h := range r.Hourly.Hours {
		row := i + 2
		_ = f.SetCellValue(hourlySheet, fmt.Sprintf("A%d", row), h.Hour)
		_ = f.SetCellValue(hourlySheet, fmt.Sprintf("B%d", row), cellValue(h.Mean))
		_ = f.SetCellValue(hourlySheet, fmt.Sprintf("C%d", row), h.Samples)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDF builds a one-document summary with the trend and hourly tables
func PDF(r *dashboard.Report) ([]byte, error) {
	if err := exportable(r); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Solar generation report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, row := range summaryRows(r) {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", row[0], row[1]))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Bucket ("+string(r.Trend.Bucket)+")", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Rows", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, p := range r.Trend.Points {
		pdf.CellFormat(50, 6, p.Start.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, p.Value.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprint(p.Rows), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Hour", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Mean", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, h := range r.Hourly.Hours {
		pdf.CellFormat(25, 6, fmt.Sprintf("%02d:00", h.Hour), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, h.Mean.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
