package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/openshiksha/exam-api/internal/models"
)

// Parser maps an uploaded marks sheet onto ingest rows using the column
// layout produced by the template generator for the same class.
type Parser struct {
	subjects []models.Subject
}

// NewParser builds a parser for one class's subject list.
func NewParser(subjects []models.Subject) *Parser {
	return &Parser{subjects: subjects}
}

// Parse reads the CSV sheet and returns one ingest row per data record.
// A malformed header is a hard error; cell contents are passed through
// untouched so the ingestion service can apply its own per-row validation.
func (p *Parser) Parse(r io.Reader) ([]models.IngestRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("sheet is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	identityIdx, markIdx, err := p.mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []models.IngestRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, p.buildRow(record, identityIdx, markIdx))
	}
	return rows, nil
}

// mapHeader resolves every header cell to either an identity field or a
// subject column. Unknown columns are rejected so a sheet generated for a
// different class cannot be ingested silently.
func (p *Parser) mapHeader(header []string) (map[string]int, map[int]subjectColumn, error) {
	known := make(map[string]subjectColumn)
	for _, subject := range p.subjects {
		for _, col := range subjectColumns(subject) {
			known[normalizeHeader(col.header)] = col
		}
	}

	identityIdx := make(map[string]int)
	markIdx := make(map[int]subjectColumn)
	for i, cell := range header {
		name := normalizeHeader(cell)
		if name == "" {
			continue
		}
		if isIdentityColumn(name) {
			identityIdx[name] = i
			continue
		}
		col, ok := known[name]
		if !ok {
			return nil, nil, fmt.Errorf("unknown column %q", strings.TrimSpace(cell))
		}
		markIdx[i] = col
	}

	for _, required := range identityColumns {
		if _, ok := identityIdx[normalizeHeader(required)]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", required)
		}
	}
	return identityIdx, markIdx, nil
}

func (p *Parser) buildRow(record []string, identityIdx map[string]int, markIdx map[int]subjectColumn) models.IngestRow {
	cell := func(name string) string {
		i, ok := identityIdx[normalizeHeader(name)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := models.IngestRow{
		RollNumber:   cell("Roll Number"),
		EnrollmentNo: cell("Enrollment No"),
		Name:         cell("Name"),
		FatherName:   cell("Father Name"),
		DateOfBirth:  cell("Date of Birth"),
		Marks:        make(map[string]models.MarkValue),
	}

	for i, col := range markIdx {
		if i >= len(record) {
			continue
		}
		raw := strings.TrimSpace(record[i])
		if raw == "" {
			continue
		}
		value := row.Marks[col.subject]
		v := raw
		switch col.kind {
		case columnTheory:
			value.Theory = &v
		case columnPractical:
			value.Practical = &v
		default:
			value.Value = &v
		}
		row.Marks[col.subject] = value
	}
	return row
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func isIdentityColumn(normalized string) bool {
	for _, name := range identityColumns {
		if normalizeHeader(name) == normalized {
			return true
		}
	}
	return false
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
