package models

import "time"

// Student represents a learner registered for one academic year.
// (RollNumber, AcademicYear) is a hard unique key; re-ingesting the same
// roll/year pair reuses the existing row.
type Student struct {
	ID           string    `db:"id" json:"id"`
	RollNumber   string    `db:"roll_number" json:"roll_number"`
	EnrollmentNo string    `db:"enrollment_no" json:"enrollment_no"`
	Name         string    `db:"name" json:"name"`
	FatherName   string    `db:"father_name" json:"father_name"`
	DateOfBirth  time.Time `db:"date_of_birth" json:"date_of_birth"`
	ClassID      string    `db:"class_id" json:"class_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
