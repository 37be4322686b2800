// Package export renders a summary report as a spreadsheet or a PDF.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ErrUnsupportedFormat is returned by ParseFormat.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts "xlsx" or "pdf", case-insensitively. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename names the attachment of tenant generated at t.
func (f Format) Filename(tenant string, t time.Time) string {
	return fmt.Sprintf("watch-summary-%s-%s.%s", tenant, t.UTC().Format("20060102T150405Z"), f)
}

// Render dispatches to XLSX or PDF.
func Render(f Format, title string, r models.Report) ([]byte, error) {
	if f == FormatPDF {
		return PDF(title, r)
	}
	return XLSX(r)
}

const (
	watchesSheet = "watches"
	actionsSheet = "actions"
)

var (
	watchHeader  = []interface{}{"Watch", "Status", "Severity", "Level", "Value", "Threshold", "Description", "Reason", "Actions"}
	actionHeader = []interface{}{"Watch", "Action", "Status", "Check result", "Triggered", "Checked", "Execution", "Error", "Details"}
)

// XLSX renders one row per watch on the "watches" sheet and one row per
// (watch, action) pair on the "actions" sheet.
func XLSX(r models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", watchesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(actionsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(watchesSheet, "A1", &watchHeader); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(actionsSheet, "A1", &actionHeader); err != nil {
		return nil, err
	}

	actionRow := 2
	for i, w := range r.Watches {
		row := []interface{}{
			w.WatchID, w.StatusCode, deref(w.Severity), "", "", "",
			deref(w.Description), deref(w.Reason), len(w.Actions),
		}
		if d := w.SeverityDetails; d != nil {
			row[3], row[4], row[5] = d.LevelNumeric, d.CurrentValue, d.Threshold
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(watchesSheet, cell, &row); err != nil {
			return nil, err
		}

		for _, name := range actionNames(w) {
			a := w.Actions[name]
			arow := []interface{}{
				w.WatchID, name, a.StatusCode, a.CheckResult,
				formatTime(a.Triggered), formatTime(a.Checked), formatTime(a.Execution),
				deref(a.Error), deref(a.StatusDetails),
			}
			cell, _ := excelize.CoordinatesToCellName(1, actionRow)
			if err := f.SetSheetRow(actionsSheet, cell, &arow); err != nil {
				return nil, err
			}
			actionRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF renders a landscape table of watches.
func PDF(title string, r models.Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()
	pdf.Cell(0, 8, title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Watches: %d", len(r.Watches)))
	pdf.Ln(8)

	widths := []float64{90, 45, 30, 20, 25, 60}
	header := []string{"Watch", "Status", "Severity", "Level", "Actions", "Reason"}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range header {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, w := range r.Watches {
		level := ""
		if w.SeverityDetails != nil {
			level = fmt.Sprintf("%d", w.SeverityDetails.LevelNumeric)
		}
		cells := []string{
			truncate(w.WatchID, 55), w.StatusCode, deref(w.Severity), level,
			fmt.Sprintf("%d", len(w.Actions)), truncate(deref(w.Reason), 36),
		}
		for i, c := range cells {
			align := "L"
			if i == 3 || i == 4 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func actionNames(w models.WatchSummary) []string {
	names := make([]string, 0, len(w.Actions))
	for name := range w.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
