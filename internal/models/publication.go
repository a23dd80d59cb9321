package models

import "time"

// ResultPublication gates external visibility of results for one academic
// year. IsPublished is an explicit override; otherwise visibility is decided
// by comparing the request time against PublishDate.
type ResultPublication struct {
	ID           string    `db:"id" json:"id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	PublishDate  time.Time `db:"publish_date" json:"publish_date"`
	IsPublished  bool      `db:"is_published" json:"is_published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// VisibleAt reports whether results for the year may be exposed at the given
// instant. Callers must evaluate one consistently-read "now" per request.
func (p *ResultPublication) VisibleAt(now time.Time) bool {
	if p == nil {
		return false
	}
	if p.IsPublished {
		return true
	}
	return !now.Before(p.PublishDate)
}
