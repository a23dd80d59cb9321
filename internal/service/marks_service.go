package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type resultUpserter interface {
	FindByStudentAndYear(ctx context.Context, studentID, academicYear string) (*models.Result, error)
	FindOrCreate(ctx context.Context, studentID, academicYear string) (*models.Result, error)
	Delete(ctx context.Context, id string) error
}

type markWriter interface {
	Upsert(ctx context.Context, mark *models.SubjectMark) error
	ListDetailsByResult(ctx context.Context, resultID string) ([]models.MarkDetail, error)
}

type optInChecker interface {
	SubjectIDSet(ctx context.Context, studentID string) (map[string]struct{}, error)
}

// MarkEntry is one subject's marks in a direct-edit payload. Absent
// components default to zero before pass-checking.
type MarkEntry struct {
	SubjectID string   `json:"subject_id" validate:"required"`
	Marks     *float64 `json:"marks,omitempty"`
	Theory    *float64 `json:"theory,omitempty"`
	Practical *float64 `json:"practical,omitempty"`
}

// UpsertMarksRequest carries a direct marks edit for one student and year.
type UpsertMarksRequest struct {
	StudentID    string      `json:"student_id" validate:"required"`
	AcademicYear string      `json:"academic_year" validate:"required"`
	Entries      []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

// StudentMarks couples a result with its per-subject detail rows.
type StudentMarks struct {
	Result *models.Result      `json:"result"`
	Marks  []models.MarkDetail `json:"marks"`
}

// MarksService implements the single-student marks administration path.
type MarksService struct {
	students   studentFinder
	subjects   subjectReader
	results    resultUpserter
	marks      markWriter
	optIns     optInChecker
	aggregator resultRecomputer
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewMarksService constructs a MarksService.
func NewMarksService(students studentFinder, subjects subjectReader, results resultUpserter, marks markWriter, optIns optInChecker, aggregator resultRecomputer, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{
		students:   students,
		subjects:   subjects,
		results:    results,
		marks:      marks,
		optIns:     optIns,
		aggregator: aggregator,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// Get returns the student's result and marks for one academic year.
func (s *MarksService) Get(ctx context.Context, studentID, academicYear string) (*StudentMarks, error) {
	if studentID == "" || academicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and academic year required")
	}
	result, err := s.results.FindByStudentAndYear(ctx, studentID, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	details, err := s.marks.ListDetailsByResult(ctx, result.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return &StudentMarks{Result: result, Marks: details}, nil
}

// Upsert writes the supplied marks, evaluating each subject's pass flags
// through the shared rule, then recomputes the aggregate once.
func (s *MarksService) Upsert(ctx context.Context, req UpsertMarksRequest) (*StudentMarks, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	optedIn, err := s.optIns.SubjectIDSet(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load opt-ins")
	}

	result, err := s.results.FindOrCreate(ctx, student.ID, req.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare result")
	}

	for _, entry := range req.Entries {
		subject, err := s.subjects.FindByID(ctx, entry.SubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", entry.SubjectID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		if subject.ClassID != student.ClassID {
			return nil, appErrors.Clone(appErrors.ErrClassMismatch, fmt.Sprintf("subject %s belongs to a different class", subject.Name))
		}
		if subject.IsAdditional {
			if _, ok := optedIn[subject.ID]; !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student has not opted into %s", subject.Name))
			}
		}
		if err := validateFinite(entry.Marks, entry.Theory, entry.Practical); err != nil {
			return nil, err
		}

		mark := EvaluateMark(subject, MarkInput{Marks: entry.Marks, Theory: entry.Theory, Practical: entry.Practical})
		mark.ResultID = result.ID
		if err := s.marks.Upsert(ctx, &mark); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store mark")
		}
	}

	updated, err := s.aggregator.Recompute(ctx, result.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, LookupKey(student.RollNumber, req.AcademicYear))

	details, err := s.marks.ListDetailsByResult(ctx, result.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return &StudentMarks{Result: updated, Marks: details}, nil
}

// DeleteResult removes a student's result and marks for one academic year.
func (s *MarksService) DeleteResult(ctx context.Context, studentID, academicYear string) error {
	if studentID == "" || academicYear == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student and academic year required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	result, err := s.results.FindByStudentAndYear(ctx, studentID, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	if err := s.results.Delete(ctx, result.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete result")
	}
	s.cache.Invalidate(ctx, LookupKey(student.RollNumber, academicYear))
	return nil
}

func validateFinite(values ...*float64) error {
	for _, v := range values {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "marks must be non-negative finite numbers")
		}
	}
	return nil
}
