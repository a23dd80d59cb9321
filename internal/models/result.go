package models

import "time"

// Result caches the aggregate computed from a student's subject marks for one
// academic year. The aggregate fields are only ever written by recomputation,
// never edited directly.
type Result struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	TotalMarks    float64   `db:"total_marks" json:"total_marks"`
	MaxTotalMarks float64   `db:"max_total_marks" json:"max_total_marks"`
	Percentage    float64   `db:"percentage" json:"percentage"`
	IsPassed      bool      `db:"is_passed" json:"is_passed"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectMark holds the recorded marks for one (result, subject) pair.
// Theory/practical fields are nil under the traditional scheme; MarksObtained
// mirrors the component sum under the theory+practical scheme.
type SubjectMark struct {
	ID                string    `db:"id" json:"id"`
	ResultID          string    `db:"result_id" json:"result_id"`
	SubjectID         string    `db:"subject_id" json:"subject_id"`
	MarksObtained     float64   `db:"marks_obtained" json:"marks_obtained"`
	TheoryMarks       *float64  `db:"theory_marks" json:"theory_marks,omitempty"`
	PracticalMarks    *float64  `db:"practical_marks" json:"practical_marks,omitempty"`
	IsTheoryPassed    *bool     `db:"is_theory_passed" json:"is_theory_passed,omitempty"`
	IsPracticalPassed *bool     `db:"is_practical_passed" json:"is_practical_passed,omitempty"`
	IsPassed          bool      `db:"is_passed" json:"is_passed"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// MarkDetail joins a SubjectMark with the subject attributes the aggregator
// and presentation layers need.
type MarkDetail struct {
	SubjectMark
	SubjectName           string   `db:"subject_name" json:"subject_name"`
	SubjectOrder          int      `db:"subject_order" json:"-"`
	HasPractical          bool     `db:"has_practical" json:"has_practical"`
	IsAdditional          bool     `db:"is_additional" json:"is_additional"`
	SubjectMaxMarks       float64  `db:"subject_max_marks" json:"subject_max_marks"`
	SubjectPassingMarks   float64  `db:"subject_passing_marks" json:"subject_passing_marks"`
	TheoryMaxMarks        *float64 `db:"theory_max_marks" json:"theory_max_marks,omitempty"`
	PracticalMaxMarks     *float64 `db:"practical_max_marks" json:"practical_max_marks,omitempty"`
	TheoryPassingMarks    *float64 `db:"theory_passing_marks" json:"theory_passing_marks,omitempty"`
	PracticalPassingMarks *float64 `db:"practical_passing_marks" json:"practical_passing_marks,omitempty"`
}

// SubjectMarkView is the public projection of one subject row in a result.
type SubjectMarkView struct {
	SubjectName       string   `json:"subject_name"`
	HasPractical      bool     `json:"has_practical"`
	IsAdditional      bool     `json:"is_additional"`
	MaxMarks          float64  `json:"max_marks"`
	MarksObtained     float64  `json:"marks_obtained"`
	TheoryMarks       *float64 `json:"theory_marks,omitempty"`
	PracticalMarks    *float64 `json:"practical_marks,omitempty"`
	IsTheoryPassed    *bool    `json:"is_theory_passed,omitempty"`
	IsPracticalPassed *bool    `json:"is_practical_passed,omitempty"`
	IsPassed          bool     `json:"is_passed"`
}

// ResultView is the public result payload returned by the lookup service.
// It deliberately excludes internal ids and administrative bookkeeping.
type ResultView struct {
	RollNumber    string            `json:"roll_number"`
	EnrollmentNo  string            `json:"enrollment_no"`
	StudentName   string            `json:"student_name"`
	FatherName    string            `json:"father_name"`
	ClassName     string            `json:"class_name"`
	AcademicYear  string            `json:"academic_year"`
	TotalMarks    float64           `json:"total_marks"`
	MaxTotalMarks float64           `json:"max_total_marks"`
	Percentage    float64           `json:"percentage"`
	IsPassed      bool              `json:"is_passed"`
	Subjects      []SubjectMarkView `json:"subjects"`
}
