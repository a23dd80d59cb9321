package models

import "time"

// Class represents an academic class owning an ordered set of subjects.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	Subjects []Subject `json:"subjects,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Active *bool
	Search string
}
