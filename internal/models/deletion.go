package models

// DeletionScope selects the reach of a bulk delete.
type DeletionScope string

const (
	// DeletionScopeAll targets every class.
	DeletionScopeAll DeletionScope = "all"
	// DeletionScopeClassWise targets a single class.
	DeletionScopeClassWise DeletionScope = "class_wise"
)

// DeletionDetail breaks a preview down per academic year.
type DeletionDetail struct {
	AcademicYear string `db:"academic_year" json:"academic_year"`
	ResultCount  int    `db:"result_count" json:"result_count"`
}

// DeletionPreview reports what a bulk delete would remove.
type DeletionPreview struct {
	ResultCount  int              `json:"result_count"`
	StudentCount int              `json:"student_count"`
	Details      []DeletionDetail `json:"details"`
}

// DeletionOutcome reports what a bulk delete removed.
type DeletionOutcome struct {
	DeletedResultCount  int `json:"deleted_result_count"`
	DeletedStudentCount int `json:"deleted_student_count"`
}
