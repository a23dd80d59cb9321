package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshiksha/exam-api/internal/models"
	"github.com/openshiksha/exam-api/internal/service"
	"github.com/openshiksha/exam-api/pkg/export"
	"github.com/openshiksha/exam-api/pkg/response"
)

type lookupStudentsMock struct {
	student *models.Student
}

func (m *lookupStudentsMock) FindByRollAndYear(ctx context.Context, rollNumber, academicYear string) (*models.Student, error) {
	if m.student != nil && m.student.RollNumber == rollNumber && m.student.AcademicYear == academicYear {
		return m.student, nil
	}
	return nil, sql.ErrNoRows
}

type lookupResultsMock struct {
	result *models.Result
}

func (m *lookupResultsMock) FindByStudentAndYear(ctx context.Context, studentID, academicYear string) (*models.Result, error) {
	if m.result != nil && m.result.StudentID == studentID {
		return m.result, nil
	}
	return nil, sql.ErrNoRows
}

type lookupMarksMock struct {
	details []models.MarkDetail
}

func (m *lookupMarksMock) ListDetailsByResult(ctx context.Context, resultID string) ([]models.MarkDetail, error) {
	return m.details, nil
}

type lookupClassesMock struct{}

func (m *lookupClassesMock) FindByID(ctx context.Context, id string) (*models.Class, error) {
	return &models.Class{ID: id, Name: "Class 10"}, nil
}

type lookupGateMock struct {
	err error
}

func (m *lookupGateMock) Visibility(ctx context.Context, academicYear string, now time.Time) error {
	return m.err
}

func newLookupHandlerFixture() *LookupHandler {
	student := &models.Student{
		ID:           "stu-1",
		RollNumber:   "101",
		EnrollmentNo: "EN-2025-101",
		Name:         "Asha Verma",
		FatherName:   "Ramesh Verma",
		DateOfBirth:  time.Date(2010, 4, 12, 0, 0, 0, 0, time.UTC),
		ClassID:      "cls-1",
		AcademicYear: "2025",
	}
	result := &models.Result{
		ID:            "res-1",
		StudentID:     "stu-1",
		AcademicYear:  "2025",
		TotalMarks:    77,
		MaxTotalMarks: 200,
		Percentage:    38.5,
		IsPassed:      true,
	}
	detail := models.MarkDetail{
		SubjectMark: models.SubjectMark{ResultID: "res-1", SubjectID: "sub-math", MarksObtained: 40, IsPassed: true},
		SubjectName: "Mathematics", SubjectMaxMarks: 100, SubjectPassingMarks: 33,
	}
	svc := service.NewLookupService(
		&lookupStudentsMock{student: student},
		&lookupResultsMock{result: result},
		&lookupMarksMock{details: []models.MarkDetail{detail}},
		&lookupClassesMock{},
		&lookupGateMock{},
		service.NewCacheService(nil, nil, 0, nil, false),
		nil, nil, nil,
	)
	return NewLookupHandler(svc, export.NewMarksheetExporter("Model Public School"))
}

func performLookup(t *testing.T, handler func(*gin.Context), payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/public/results/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler(c)
	return w
}

func TestLookupHandlerSearchReturnsView(t *testing.T) {
	h := newLookupHandlerFixture()
	w := performLookup(t, h.Search, service.SearchRequest{
		RollNumber:   "101",
		AcademicYear: "2025",
		EnrollmentNo: "EN-2025-101",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error)
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var view models.ResultView
	require.NoError(t, json.Unmarshal(payload, &view))
	assert.Equal(t, "Asha Verma", view.StudentName)
	assert.Equal(t, "Class 10", view.ClassName)
	assert.InDelta(t, 38.5, view.Percentage, 0.0001)
	assert.Len(t, view.Subjects, 1)
}

func TestLookupHandlerSearchWrongSecondFactor(t *testing.T) {
	h := newLookupHandlerFixture()
	w := performLookup(t, h.Search, service.SearchRequest{
		RollNumber:   "101",
		AcademicYear: "2025",
		EnrollmentNo: "EN-2025-999",
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "RESULT_NOT_FOUND", envelope.Error.Code)
}

func TestLookupHandlerSearchInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newLookupHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/public/results/search", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Search(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLookupHandlerDownloadPDF(t *testing.T) {
	h := newLookupHandlerFixture()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.SearchRequest{
		RollNumber:   "101",
		AcademicYear: "2025",
		DateOfBirth:  "2010-04-12",
	})
	req, _ := http.NewRequest(http.MethodPost, "/public/results/pdf", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.DownloadPDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "result-2025-101.pdf")
	assert.NotEmpty(t, w.Body.Bytes())
}
