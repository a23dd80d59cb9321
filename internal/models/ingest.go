package models

// MarkValue carries the raw cell content for one subject in an upload row.
// Values stay as strings until the ingestion service validates them, so blank
// cells ("not provided") and non-numeric cells (row error) remain
// distinguishable. Traditional subjects use Value; theory+practical subjects
// use Theory and Practical.
type MarkValue struct {
	Value     *string `json:"value,omitempty"`
	Theory    *string `json:"theory,omitempty"`
	Practical *string `json:"practical,omitempty"`
}

// IngestRow is one student row from a bulk upload, already mapped from
// column headers to subject names by the tabular adapter.
type IngestRow struct {
	RollNumber   string               `json:"roll_number"`
	EnrollmentNo string               `json:"enrollment_no"`
	Name         string               `json:"name"`
	FatherName   string               `json:"father_name"`
	DateOfBirth  string               `json:"date_of_birth"`
	Marks        map[string]MarkValue `json:"marks"`
}

// RowError captures a per-record ingestion problem. Row errors are collected
// into the report, never escalated into a batch failure.
type RowError struct {
	RollNumber string `json:"roll_number"`
	Error      string `json:"error"`
}

// IngestReport summarises a bulk ingestion run.
type IngestReport struct {
	TotalProcessed int        `json:"total_processed"`
	SuccessCount   int        `json:"success_count"`
	ErrorCount     int        `json:"error_count"`
	Errors         []RowError `json:"errors,omitempty"`
}
