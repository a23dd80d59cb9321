package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type optInRepo interface {
	Upsert(ctx context.Context, optIn *models.StudentSubjectOptIn) error
	Delete(ctx context.Context, studentID, subjectID string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.OptInDetail, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.OptInDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type resultReader interface {
	FindByStudentAndYear(ctx context.Context, studentID, academicYear string) (*models.Result, error)
}

type markDeleter interface {
	DeleteByResultAndSubject(ctx context.Context, resultID, subjectID string) error
}

type resultRecomputer interface {
	Recompute(ctx context.Context, resultID string) (*models.Result, error)
}

// OptInService manages additional-subject elections.
type OptInService struct {
	optIns     optInRepo
	students   studentReader
	subjects   subjectReader
	results    resultReader
	marks      markDeleter
	aggregator resultRecomputer
	logger     *zap.Logger
}

// NewOptInService constructs an OptInService.
func NewOptInService(optIns optInRepo, students studentReader, subjects subjectReader, results resultReader, marks markDeleter, aggregator resultRecomputer, logger *zap.Logger) *OptInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptInService{
		optIns:     optIns,
		students:   students,
		subjects:   subjects,
		results:    results,
		marks:      marks,
		aggregator: aggregator,
		logger:     logger,
	}
}

// OptIn elects a student into an additional subject. Repeating the same pair
// is a no-op. The subject must be additional and belong to the student's class.
func (s *OptInService) OptIn(ctx context.Context, studentID, subjectID string) (*models.StudentSubjectOptIn, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if !subject.IsAdditional {
		return nil, appErrors.ErrInvalidSubject
	}
	if subject.ClassID != student.ClassID {
		return nil, appErrors.ErrClassMismatch
	}

	optIn := &models.StudentSubjectOptIn{StudentID: studentID, SubjectID: subjectID}
	if err := s.optIns.Upsert(ctx, optIn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record opt-in")
	}
	return optIn, nil
}

// OptOut withdraws a student from an additional subject. Any mark already
// recorded for the pair is removed, and the student's result is recomputed
// in the same call so the aggregate never goes stale.
func (s *OptInService) OptOut(ctx context.Context, studentID, subjectID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.optIns.Delete(ctx, studentID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete opt-in")
	}

	result, err := s.results.FindByStudentAndYear(ctx, studentID, student.AcademicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}

	if err := s.marks.DeleteByResultAndSubject(ctx, result.ID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject mark")
	}
	if _, err := s.aggregator.Recompute(ctx, result.ID); err != nil {
		return err
	}

	s.logger.Info("opt-out processed",
		zap.String("student_id", studentID),
		zap.String("subject_id", subjectID),
	)
	return nil
}

// ListForStudent returns the student's opt-ins.
func (s *OptInService) ListForStudent(ctx context.Context, studentID string) ([]models.OptInDetail, error) {
	optIns, err := s.optIns.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list opt-ins")
	}
	return optIns, nil
}

// ListForSubject returns the subject's opted-in students.
func (s *OptInService) ListForSubject(ctx context.Context, subjectID string) ([]models.OptInDetail, error) {
	optIns, err := s.optIns.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list opt-ins")
	}
	return optIns, nil
}
