package tabular

import (
	"github.com/openshiksha/exam-api/internal/models"
	"github.com/openshiksha/exam-api/pkg/export"
)

// Template produces the blank upload sheet for a class: the identity columns
// followed by one column per traditional subject and a theory/practical pair
// per practical subject, in subject display order.
func Template(subjects []models.Subject) ([]byte, error) {
	headers := make([]string, 0, len(identityColumns)+len(subjects)*2)
	headers = append(headers, identityColumns...)
	for _, subject := range subjects {
		for _, col := range subjectColumns(subject) {
			headers = append(headers, col.header)
		}
	}

	exporter := export.NewCSVExporter()
	return exporter.Render(export.Dataset{Headers: headers})
}
