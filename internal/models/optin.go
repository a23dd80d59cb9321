package models

import "time"

// StudentSubjectOptIn records a student's election into an additional subject.
type StudentSubjectOptIn struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OptInDetail decorates an opt-in with subject and student display fields.
type OptInDetail struct {
	StudentSubjectOptIn
	SubjectName string `db:"subject_name" json:"subject_name"`
	StudentName string `db:"student_name" json:"student_name"`
	RollNumber  string `db:"roll_number" json:"roll_number"`
}
