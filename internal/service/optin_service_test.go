package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type mockOptInRepo struct {
	elections map[string]map[string]struct{}
	deleted   [][2]string
}

func (m *mockOptInRepo) Upsert(ctx context.Context, optIn *models.StudentSubjectOptIn) error {
	if m.elections == nil {
		m.elections = make(map[string]map[string]struct{})
	}
	if m.elections[optIn.StudentID] == nil {
		m.elections[optIn.StudentID] = make(map[string]struct{})
	}
	m.elections[optIn.StudentID][optIn.SubjectID] = struct{}{}
	return nil
}

func (m *mockOptInRepo) Delete(ctx context.Context, studentID, subjectID string) error {
	m.deleted = append(m.deleted, [2]string{studentID, subjectID})
	delete(m.elections[studentID], subjectID)
	return nil
}

func (m *mockOptInRepo) ListByStudent(ctx context.Context, studentID string) ([]models.OptInDetail, error) {
	var out []models.OptInDetail
	for subjectID := range m.elections[studentID] {
		out = append(out, models.OptInDetail{
			StudentSubjectOptIn: models.StudentSubjectOptIn{StudentID: studentID, SubjectID: subjectID},
		})
	}
	return out, nil
}

func (m *mockOptInRepo) ListBySubject(ctx context.Context, subjectID string) ([]models.OptInDetail, error) {
	var out []models.OptInDetail
	for studentID, subjects := range m.elections {
		if _, ok := subjects[subjectID]; ok {
			out = append(out, models.OptInDetail{
				StudentSubjectOptIn: models.StudentSubjectOptIn{StudentID: studentID, SubjectID: subjectID},
			})
		}
	}
	return out, nil
}

func (m *mockOptInRepo) SubjectIDSet(ctx context.Context, studentID string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for subjectID := range m.elections[studentID] {
		set[subjectID] = struct{}{}
	}
	return set, nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

type mockSubjectReader struct {
	subjects map[string]*models.Subject
}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subject, nil
}

type mockResultReader struct {
	results map[string]*models.Result
}

func (m *mockResultReader) FindByStudentAndYear(ctx context.Context, studentID, academicYear string) (*models.Result, error) {
	result, ok := m.results[studentID+"/"+academicYear]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return result, nil
}

type mockMarkDeleter struct {
	deleted [][2]string
}

func (m *mockMarkDeleter) DeleteByResultAndSubject(ctx context.Context, resultID, subjectID string) error {
	m.deleted = append(m.deleted, [2]string{resultID, subjectID})
	return nil
}

type mockRecomputer struct {
	calls []string
}

func (m *mockRecomputer) Recompute(ctx context.Context, resultID string) (*models.Result, error) {
	m.calls = append(m.calls, resultID)
	return &models.Result{ID: resultID}, nil
}

func newOptInFixture() (*OptInService, *mockOptInRepo, *mockMarkDeleter, *mockRecomputer) {
	optIns := &mockOptInRepo{}
	marks := &mockMarkDeleter{}
	aggregator := &mockRecomputer{}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", ClassID: "cls-1", AcademicYear: "2025", RollNumber: "101"},
	}}
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{
		"sub-add":  {ID: "sub-add", ClassID: "cls-1", Name: "Sanskrit", IsAdditional: true},
		"sub-core": {ID: "sub-core", ClassID: "cls-1", Name: "Mathematics"},
		"sub-far":  {ID: "sub-far", ClassID: "cls-2", Name: "Music", IsAdditional: true},
	}}
	results := &mockResultReader{results: map[string]*models.Result{
		"stu-1/2025": {ID: "res-1", StudentID: "stu-1", AcademicYear: "2025"},
	}}
	svc := NewOptInService(optIns, students, subjects, results, marks, aggregator, nil)
	return svc, optIns, marks, aggregator
}

func TestOptInRejectsNonAdditionalSubject(t *testing.T) {
	svc, _, _, _ := newOptInFixture()

	_, err := svc.OptIn(context.Background(), "stu-1", "sub-core")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidSubject)
}

func TestOptInRejectsSubjectFromAnotherClass(t *testing.T) {
	svc, _, _, _ := newOptInFixture()

	_, err := svc.OptIn(context.Background(), "stu-1", "sub-far")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrClassMismatch)
}

func TestOptInIsIdempotent(t *testing.T) {
	svc, optIns, _, _ := newOptInFixture()

	_, err := svc.OptIn(context.Background(), "stu-1", "sub-add")
	require.NoError(t, err)
	_, err = svc.OptIn(context.Background(), "stu-1", "sub-add")
	require.NoError(t, err)

	assert.Len(t, optIns.elections["stu-1"], 1)
}

func TestOptInUnknownStudent(t *testing.T) {
	svc, _, _, _ := newOptInFixture()

	_, err := svc.OptIn(context.Background(), "stu-missing", "sub-add")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestOptOutRemovesMarkAndRecomputes(t *testing.T) {
	svc, optIns, marks, aggregator := newOptInFixture()
	_, err := svc.OptIn(context.Background(), "stu-1", "sub-add")
	require.NoError(t, err)

	require.NoError(t, svc.OptOut(context.Background(), "stu-1", "sub-add"))

	assert.Empty(t, optIns.elections["stu-1"])
	require.Len(t, marks.deleted, 1)
	assert.Equal(t, [2]string{"res-1", "sub-add"}, marks.deleted[0])
	assert.Equal(t, []string{"res-1"}, aggregator.calls)
}

func TestOptOutWithoutResultSkipsRecompute(t *testing.T) {
	svc, _, marks, aggregator := newOptInFixture()
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-2": {ID: "stu-2", ClassID: "cls-1", AcademicYear: "2025"},
	}}
	svc.students = students

	require.NoError(t, svc.OptOut(context.Background(), "stu-2", "sub-add"))
	assert.Empty(t, marks.deleted)
	assert.Empty(t, aggregator.calls)
}
