package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type ingestStudentRepo interface {
	Upsert(ctx context.Context, student *models.Student) error
}

type ingestResultRepo interface {
	FindOrCreate(ctx context.Context, studentID, academicYear string) (*models.Result, error)
	DeleteByClassAndYear(ctx context.Context, classID, academicYear string) error
}

type ingestMarkRepo interface {
	Upsert(ctx context.Context, mark *models.SubjectMark) error
}

// IngestRequest drives one bulk ingestion run.
type IngestRequest struct {
	AcademicYear  string             `json:"academic_year"`
	ClassID       string             `json:"class_id"`
	Rows          []models.IngestRow `json:"rows"`
	ClearExisting bool               `json:"clear_existing"`
}

// IngestService maps upload rows onto students, marks and results. Row-level
// problems are collected into the report; only structural problems fail the
// whole call. Rows are processed sequentially; partial writes stay committed.
type IngestService struct {
	classes    classReader
	subjects   subjectLister
	students   ingestStudentRepo
	results    ingestResultRepo
	marks      ingestMarkRepo
	optIns     optInChecker
	aggregator resultRecomputer
	cache      *CacheService
	metrics    *MetricsService
	maxRows    int
	logger     *zap.Logger
}

// NewIngestService constructs an IngestService.
func NewIngestService(classes classReader, subjects subjectLister, students ingestStudentRepo, results ingestResultRepo, marks ingestMarkRepo, optIns optInChecker, aggregator resultRecomputer, cache *CacheService, metrics *MetricsService, maxRows int, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		classes:    classes,
		subjects:   subjects,
		students:   students,
		results:    results,
		marks:      marks,
		optIns:     optIns,
		aggregator: aggregator,
		cache:      cache,
		metrics:    metrics,
		maxRows:    maxRows,
		logger:     logger,
	}
}

// Ingest runs the pipeline for one class and academic year.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*models.IngestReport, error) {
	if req.AcademicYear == "" || req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic year and class required")
	}
	if len(req.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no rows supplied")
	}
	if s.maxRows > 0 && len(req.Rows) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("upload exceeds %d rows", s.maxRows))
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	subjects, err := s.subjects.ListByClass(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	subjectsByName := make(map[string]*models.Subject, len(subjects))
	for i := range subjects {
		subjectsByName[subjects[i].Name] = &subjects[i]
	}

	if req.ClearExisting {
		if err := s.results.DeleteByClassAndYear(ctx, req.ClassID, req.AcademicYear); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing results")
		}
	}

	report := &models.IngestReport{TotalProcessed: len(req.Rows)}
	for i := range req.Rows {
		s.processRow(ctx, &req.Rows[i], req.AcademicYear, req.ClassID, subjectsByName, report)
	}

	s.cache.Invalidate(ctx, YearPattern(req.AcademicYear))
	s.logger.Info("bulk ingestion finished",
		zap.String("class_id", req.ClassID),
		zap.String("academic_year", req.AcademicYear),
		zap.Int("total", report.TotalProcessed),
		zap.Int("success", report.SuccessCount),
		zap.Int("errors", report.ErrorCount),
	)
	return report, nil
}

func (s *IngestService) processRow(ctx context.Context, row *models.IngestRow, academicYear, classID string, subjectsByName map[string]*models.Subject, report *models.IngestReport) {
	addError := func(msg string) {
		report.ErrorCount++
		report.Errors = append(report.Errors, models.RowError{RollNumber: row.RollNumber, Error: msg})
		s.metrics.CountIngestRow("error")
	}

	dob, err := validateRowIdentity(row)
	if err != nil {
		addError(err.Error())
		return
	}

	student := &models.Student{
		RollNumber:   strings.TrimSpace(row.RollNumber),
		EnrollmentNo: strings.TrimSpace(row.EnrollmentNo),
		Name:         strings.TrimSpace(row.Name),
		FatherName:   strings.TrimSpace(row.FatherName),
		DateOfBirth:  dob,
		ClassID:      classID,
		AcademicYear: academicYear,
	}
	if err := s.students.Upsert(ctx, student); err != nil {
		addError(fmt.Sprintf("student: %v", err))
		return
	}

	result, err := s.results.FindOrCreate(ctx, student.ID, academicYear)
	if err != nil {
		addError(fmt.Sprintf("result: %v", err))
		return
	}

	optedIn, err := s.optIns.SubjectIDSet(ctx, student.ID)
	if err != nil {
		addError(fmt.Sprintf("opt-ins: %v", err))
		return
	}

	for name, value := range row.Marks {
		subject, ok := subjectsByName[name]
		if !ok {
			addError(fmt.Sprintf("unknown subject %q", name))
			continue
		}
		if subject.IsAdditional {
			if _, elected := optedIn[subject.ID]; !elected {
				// Not opted in: the subject simply does not apply to this
				// student. No mark, no error.
				continue
			}
		}

		input, skip, err := parseMarkValue(subject, value)
		if err != nil {
			addError(fmt.Sprintf("%s: %v", subject.Name, err))
			continue
		}
		if skip {
			continue
		}

		mark := EvaluateMark(subject, input)
		mark.ResultID = result.ID
		if err := s.marks.Upsert(ctx, &mark); err != nil {
			addError(fmt.Sprintf("%s: %v", subject.Name, err))
			continue
		}
	}

	if _, err := s.aggregator.Recompute(ctx, result.ID); err != nil {
		addError(fmt.Sprintf("recompute: %v", err))
		return
	}

	report.SuccessCount++
	s.metrics.CountIngestRow("success")
}

func validateRowIdentity(row *models.IngestRow) (time.Time, error) {
	missing := func(field string) error {
		return fmt.Errorf("missing %s", field)
	}
	if strings.TrimSpace(row.RollNumber) == "" {
		return time.Time{}, missing("roll number")
	}
	if strings.TrimSpace(row.EnrollmentNo) == "" {
		return time.Time{}, missing("enrollment number")
	}
	if strings.TrimSpace(row.Name) == "" {
		return time.Time{}, missing("name")
	}
	if strings.TrimSpace(row.FatherName) == "" {
		return time.Time{}, missing("father name")
	}
	if strings.TrimSpace(row.DateOfBirth) == "" {
		return time.Time{}, missing("date of birth")
	}
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(row.DateOfBirth))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date of birth %q", row.DateOfBirth)
	}
	return dob, nil
}

// parseMarkValue validates the raw cells for one subject. A fully blank value
// means "not provided" and skips the subject without writing a zero. A
// non-numeric or partially blank value is a row error.
func parseMarkValue(subject *models.Subject, value models.MarkValue) (MarkInput, bool, error) {
	if subject.HasPractical {
		theoryBlank := isBlank(value.Theory)
		practicalBlank := isBlank(value.Practical)
		if theoryBlank && practicalBlank {
			return MarkInput{}, true, nil
		}
		if theoryBlank {
			return MarkInput{}, false, fmt.Errorf("missing theory mark")
		}
		if practicalBlank {
			return MarkInput{}, false, fmt.Errorf("missing practical mark")
		}
		theory, err := parseMark(*value.Theory)
		if err != nil {
			return MarkInput{}, false, fmt.Errorf("invalid theory mark %q", *value.Theory)
		}
		practical, err := parseMark(*value.Practical)
		if err != nil {
			return MarkInput{}, false, fmt.Errorf("invalid practical mark %q", *value.Practical)
		}
		return MarkInput{Theory: &theory, Practical: &practical}, false, nil
	}

	if isBlank(value.Value) {
		return MarkInput{}, true, nil
	}
	marks, err := parseMark(*value.Value)
	if err != nil {
		return MarkInput{}, false, fmt.Errorf("invalid mark %q", *value.Value)
	}
	return MarkInput{Marks: &marks}, false, nil
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

func parseMark(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("not a valid mark")
	}
	return v, nil
}
