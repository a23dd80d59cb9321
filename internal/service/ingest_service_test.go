package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshiksha/exam-api/internal/models"
)

func str(v string) *string { return &v }

type mockClassReader struct {
	classes map[string]*models.Class
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := m.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

type mockSubjectLister struct {
	byClass map[string][]models.Subject
}

func (m *mockSubjectLister) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	return m.byClass[classID], nil
}

type mockIngestStudents struct {
	byKey map[string]*models.Student
	seq   int
}

func (m *mockIngestStudents) Upsert(ctx context.Context, student *models.Student) error {
	if m.byKey == nil {
		m.byKey = make(map[string]*models.Student)
	}
	key := student.RollNumber + "/" + student.AcademicYear
	if existing, ok := m.byKey[key]; ok {
		student.ID = existing.ID
	} else {
		m.seq++
		student.ID = "stu-" + student.RollNumber
	}
	copied := *student
	m.byKey[key] = &copied
	return nil
}

type mockIngestResults struct {
	byKey   map[string]*models.Result
	cleared [][2]string
}

func (m *mockIngestResults) FindOrCreate(ctx context.Context, studentID, academicYear string) (*models.Result, error) {
	if m.byKey == nil {
		m.byKey = make(map[string]*models.Result)
	}
	key := studentID + "/" + academicYear
	if result, ok := m.byKey[key]; ok {
		return result, nil
	}
	result := &models.Result{ID: "res-" + studentID, StudentID: studentID, AcademicYear: academicYear}
	m.byKey[key] = result
	return result, nil
}

func (m *mockIngestResults) DeleteByClassAndYear(ctx context.Context, classID, academicYear string) error {
	m.cleared = append(m.cleared, [2]string{classID, academicYear})
	return nil
}

type mockIngestMarks struct {
	upserts []models.SubjectMark
}

func (m *mockIngestMarks) Upsert(ctx context.Context, mark *models.SubjectMark) error {
	m.upserts = append(m.upserts, *mark)
	return nil
}

type ingestFixture struct {
	svc        *IngestService
	students   *mockIngestStudents
	results    *mockIngestResults
	marks      *mockIngestMarks
	optIns     *mockOptInRepo
	aggregator *mockRecomputer
}

func newIngestFixture(maxRows int) *ingestFixture {
	classes := &mockClassReader{classes: map[string]*models.Class{
		"cls-1": {ID: "cls-1", Name: "Class 10"},
	}}
	subjects := &mockSubjectLister{byClass: map[string][]models.Subject{
		"cls-1": {
			{ID: "sub-math", ClassID: "cls-1", Name: "Mathematics", MaxMarks: 100, PassingMarks: 33},
			{
				ID: "sub-sci", ClassID: "cls-1", Name: "Science", HasPractical: true,
				MaxMarks: 100, PassingMarks: 33,
				TheoryMaxMarks: f(70), PracticalMaxMarks: f(30),
				TheoryPassingMarks: f(23), PracticalPassingMarks: f(10),
			},
			{ID: "sub-add", ClassID: "cls-1", Name: "Sanskrit", IsAdditional: true, MaxMarks: 100, PassingMarks: 33},
		},
	}}
	fx := &ingestFixture{
		students:   &mockIngestStudents{},
		results:    &mockIngestResults{},
		marks:      &mockIngestMarks{},
		optIns:     &mockOptInRepo{},
		aggregator: &mockRecomputer{},
	}
	cache := NewCacheService(nil, nil, 0, nil, false)
	fx.svc = NewIngestService(classes, subjects, fx.students, fx.results, fx.marks, fx.optIns, fx.aggregator, cache, nil, maxRows, nil)
	return fx
}

func validRow(roll string) models.IngestRow {
	return models.IngestRow{
		RollNumber:   roll,
		EnrollmentNo: "EN-" + roll,
		Name:         "Student " + roll,
		FatherName:   "Father " + roll,
		DateOfBirth:  "2010-04-12",
		Marks: map[string]models.MarkValue{
			"Mathematics": {Value: str("40")},
			"Science":     {Theory: str("25"), Practical: str("12")},
		},
	}
}

func TestIngestRejectsStructuralProblems(t *testing.T) {
	fx := newIngestFixture(0)
	ctx := context.Background()

	_, err := fx.svc.Ingest(ctx, IngestRequest{ClassID: "cls-1", Rows: []models.IngestRow{validRow("101")}})
	assert.Error(t, err, "missing academic year")

	_, err = fx.svc.Ingest(ctx, IngestRequest{AcademicYear: "2025", ClassID: "cls-1"})
	assert.Error(t, err, "no rows")

	_, err = fx.svc.Ingest(ctx, IngestRequest{AcademicYear: "2025", ClassID: "cls-404", Rows: []models.IngestRow{validRow("101")}})
	assert.Error(t, err, "unknown class")
}

func TestIngestEnforcesRowLimit(t *testing.T) {
	fx := newIngestFixture(1)

	_, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{validRow("101"), validRow("102")},
	})
	require.Error(t, err)
}

func TestIngestHappyPath(t *testing.T) {
	fx := newIngestFixture(0)

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{validRow("101"), validRow("102")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalProcessed)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Zero(t, report.ErrorCount)
	assert.Len(t, fx.marks.upserts, 4)
	assert.Len(t, fx.aggregator.calls, 2, "each row recomputes its result")
}

func TestIngestReingestIsIdempotentOnStudents(t *testing.T) {
	fx := newIngestFixture(0)
	req := IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{validRow("101")},
	}

	_, err := fx.svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	_, err = fx.svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, fx.students.seq, "same roll and year reuses the student row")
	assert.Len(t, fx.results.byKey, 1)
}

func TestIngestClearExisting(t *testing.T) {
	fx := newIngestFixture(0)

	_, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear:  "2025",
		ClassID:       "cls-1",
		Rows:          []models.IngestRow{validRow("101")},
		ClearExisting: true,
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"cls-1", "2025"}}, fx.results.cleared)
}

func TestIngestBlankCellSkipsSubject(t *testing.T) {
	fx := newIngestFixture(0)
	row := validRow("101")
	row.Marks["Mathematics"] = models.MarkValue{Value: str("  ")}

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{row},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.SuccessCount)
	assert.Zero(t, report.ErrorCount)
	require.Len(t, fx.marks.upserts, 1, "only the science mark is written")
	assert.Equal(t, "sub-sci", fx.marks.upserts[0].SubjectID)
}

func TestIngestNonNumericCellIsRowError(t *testing.T) {
	fx := newIngestFixture(0)
	row := validRow("101")
	row.Marks["Mathematics"] = models.MarkValue{Value: str("forty")}

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{row},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.ErrorCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "101", report.Errors[0].RollNumber)
	assert.Contains(t, report.Errors[0].Error, "forty")
	// The valid science mark on the same row is still written.
	require.Len(t, fx.marks.upserts, 1)
	assert.Equal(t, "sub-sci", fx.marks.upserts[0].SubjectID)
}

func TestIngestPartiallyBlankPracticalPairIsRowError(t *testing.T) {
	fx := newIngestFixture(0)
	row := validRow("101")
	row.Marks["Science"] = models.MarkValue{Theory: str("30")}

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{row},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.ErrorCount)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "practical")
}

func TestIngestSkipsAdditionalWithoutOptIn(t *testing.T) {
	fx := newIngestFixture(0)
	row := validRow("101")
	row.Marks["Sanskrit"] = models.MarkValue{Value: str("80")}

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{row},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.SuccessCount)
	assert.Zero(t, report.ErrorCount, "non-elected additional subject is silently skipped")
	for _, mark := range fx.marks.upserts {
		assert.NotEqual(t, "sub-add", mark.SubjectID)
	}
}

func TestIngestWritesAdditionalForOptedInStudent(t *testing.T) {
	fx := newIngestFixture(0)
	require.NoError(t, fx.optIns.Upsert(context.Background(), &models.StudentSubjectOptIn{StudentID: "stu-101", SubjectID: "sub-add"}))

	row := validRow("101")
	row.Marks["Sanskrit"] = models.MarkValue{Value: str("80")}

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{row},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)

	var sanskritWritten bool
	for _, mark := range fx.marks.upserts {
		if mark.SubjectID == "sub-add" {
			sanskritWritten = true
		}
	}
	assert.True(t, sanskritWritten)
}

func TestIngestRowErrorsDoNotAbortBatch(t *testing.T) {
	fx := newIngestFixture(0)
	broken := validRow("101")
	broken.DateOfBirth = "12-04-2010"

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{broken, validRow("102")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalProcessed)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.ErrorCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "101", report.Errors[0].RollNumber)
}

func TestIngestMissingIdentityFieldIsRowError(t *testing.T) {
	fx := newIngestFixture(0)
	row := validRow("101")
	row.FatherName = "   "

	report, err := fx.svc.Ingest(context.Background(), IngestRequest{
		AcademicYear: "2025",
		ClassID:      "cls-1",
		Rows:         []models.IngestRow{row},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Contains(t, report.Errors[0].Error, "father name")
}
