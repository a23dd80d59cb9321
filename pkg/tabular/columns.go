package tabular

import (
	"fmt"

	"github.com/openshiksha/exam-api/internal/models"
)

// Fixed identity columns shared by the upload template and the parser.
var identityColumns = []string{
	"Roll Number",
	"Enrollment No",
	"Name",
	"Father Name",
	"Date of Birth",
}

// columnKind tells the parser which MarkValue field a subject column feeds.
type columnKind int

const (
	columnValue columnKind = iota
	columnTheory
	columnPractical
)

type subjectColumn struct {
	header  string
	subject string
	kind    columnKind
}

// subjectColumns expands a subject into its header cells. Additional subjects
// are suffixed so the sheet makes the opt-in requirement visible; practical
// subjects split into a theory and a practical column.
func subjectColumns(subject models.Subject) []subjectColumn {
	label := subject.Name
	if subject.IsAdditional {
		label = fmt.Sprintf("%s (Optional)", label)
	}
	if !subject.HasPractical {
		return []subjectColumn{{header: label, subject: subject.Name, kind: columnValue}}
	}
	return []subjectColumn{
		{header: label + " Theory", subject: subject.Name, kind: columnTheory},
		{header: label + " Practical", subject: subject.Name, kind: columnPractical},
	}
}
