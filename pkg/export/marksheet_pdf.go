package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/openshiksha/exam-api/internal/models"
)

// MarksheetExporter renders a result view into a printable PDF marksheet.
type MarksheetExporter struct {
	SchoolName string
}

// NewMarksheetExporter constructs a marksheet exporter.
func NewMarksheetExporter(schoolName string) *MarksheetExporter {
	return &MarksheetExporter{SchoolName: schoolName}
}

// Render creates the PDF document for one result view.
func (e *MarksheetExporter) Render(view *models.ResultView) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("marksheet requires a result view")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 15, 12)
	pdf.AddPage()

	if e.SchoolName != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, strings.ToUpper(e.SchoolName), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, fmt.Sprintf("EXAMINATION RESULT %s", view.AcademicYear), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	info := [][2]string{
		{"Roll Number", view.RollNumber},
		{"Enrollment No", view.EnrollmentNo},
		{"Student Name", view.StudentName},
		{"Father's Name", view.FatherName},
		{"Class", view.ClassName},
	}
	for _, pair := range info {
		pdf.CellFormat(45, 7, pair[0], "", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, ": "+pair[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Subject", "Max Marks", "Theory", "Practical", "Obtained", "Result"}
	widths := []float64{56, 26, 24, 24, 28, 28}
	pdf.SetFont("Arial", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, subject := range view.Subjects {
		name := subject.SubjectName
		if subject.IsAdditional {
			name += " (Optional)"
		}
		theory, practical := "-", "-"
		if subject.TheoryMarks != nil {
			theory = formatMark(*subject.TheoryMarks)
		}
		if subject.PracticalMarks != nil {
			practical = formatMark(*subject.PracticalMarks)
		}
		verdict := "FAIL"
		if subject.IsPassed {
			verdict = "PASS"
		}
		cells := []string{
			name,
			formatMark(subject.MaxMarks),
			theory,
			practical,
			formatMark(subject.MarksObtained),
			verdict,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	overall := "FAIL"
	if view.IsPassed {
		overall = "PASS"
	}
	pdf.CellFormat(0, 7, fmt.Sprintf("Total: %s / %s", formatMark(view.TotalMarks), formatMark(view.MaxTotalMarks)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Percentage: %.2f%%", view.Percentage), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Result: %s", overall), "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render marksheet: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMark(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
