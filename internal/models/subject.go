package models

import "time"

// Subject represents a graded subject within a class.
//
// Subjects use one of two marks configurations: a traditional scheme with a
// single max/passing pair, or a theory+practical scheme where each component
// carries its own max/passing pair and MaxMarks/PassingMarks hold the
// combined totals used for the overall pass check.
type Subject struct {
	ID           string  `db:"id" json:"id"`
	ClassID      string  `db:"class_id" json:"class_id"`
	Name         string  `db:"name" json:"name"`
	Code         *string `db:"code" json:"code,omitempty"`
	HasPractical bool    `db:"has_practical" json:"has_practical"`
	IsAdditional bool    `db:"is_additional" json:"is_additional"`
	DisplayOrder int     `db:"display_order" json:"display_order"`

	MaxMarks     float64 `db:"max_marks" json:"max_marks"`
	PassingMarks float64 `db:"passing_marks" json:"passing_marks"`

	TheoryMaxMarks        *float64 `db:"theory_max_marks" json:"theory_max_marks,omitempty"`
	PracticalMaxMarks     *float64 `db:"practical_max_marks" json:"practical_max_marks,omitempty"`
	TheoryPassingMarks    *float64 `db:"theory_passing_marks" json:"theory_passing_marks,omitempty"`
	PracticalPassingMarks *float64 `db:"practical_passing_marks" json:"practical_passing_marks,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
