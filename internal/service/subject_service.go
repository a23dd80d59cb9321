package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type subjectRepo interface {
	Create(ctx context.Context, subject *models.Subject) error
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Delete(ctx context.Context, id string) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// CreateSubjectRequest is the payload for adding a subject to a class.
// Traditional subjects supply MaxMarks/PassingMarks. Theory+practical
// subjects supply the four component fields; the combined max is their sum
// and the combined passing mark defaults to the sum of the component
// thresholds unless given explicitly.
type CreateSubjectRequest struct {
	ClassID      string  `json:"class_id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Code         *string `json:"code"`
	HasPractical bool    `json:"has_practical"`
	IsAdditional bool    `json:"is_additional"`
	DisplayOrder int     `json:"display_order"`

	MaxMarks     *float64 `json:"max_marks"`
	PassingMarks *float64 `json:"passing_marks"`

	TheoryMaxMarks        *float64 `json:"theory_max_marks"`
	PracticalMaxMarks     *float64 `json:"practical_max_marks"`
	TheoryPassingMarks    *float64 `json:"theory_passing_marks"`
	PracticalPassingMarks *float64 `json:"practical_passing_marks"`
}

// SubjectService manages the subject catalog.
type SubjectService struct {
	subjects  subjectRepo
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(subjects subjectRepo, classes classReader, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{subjects: subjects, classes: classes, validator: validate, logger: logger}
}

// Create adds a subject to a class, validating the marks configuration for
// the chosen scheme. Passing marks never exceed the corresponding max.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	subject := &models.Subject{
		ClassID:      req.ClassID,
		Name:         req.Name,
		Code:         req.Code,
		HasPractical: req.HasPractical,
		IsAdditional: req.IsAdditional,
		DisplayOrder: req.DisplayOrder,
	}

	if req.HasPractical {
		if req.TheoryMaxMarks == nil || req.PracticalMaxMarks == nil ||
			req.TheoryPassingMarks == nil || req.PracticalPassingMarks == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "theory and practical marks configuration required")
		}
		if *req.TheoryPassingMarks > *req.TheoryMaxMarks || *req.PracticalPassingMarks > *req.PracticalMaxMarks {
			return nil, appErrors.Clone(appErrors.ErrValidation, "passing marks cannot exceed max marks")
		}
		subject.TheoryMaxMarks = req.TheoryMaxMarks
		subject.PracticalMaxMarks = req.PracticalMaxMarks
		subject.TheoryPassingMarks = req.TheoryPassingMarks
		subject.PracticalPassingMarks = req.PracticalPassingMarks
		subject.MaxMarks = *req.TheoryMaxMarks + *req.PracticalMaxMarks
		if req.PassingMarks != nil {
			subject.PassingMarks = *req.PassingMarks
		} else {
			subject.PassingMarks = *req.TheoryPassingMarks + *req.PracticalPassingMarks
		}
	} else {
		if req.MaxMarks == nil || req.PassingMarks == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max and passing marks required")
		}
		subject.MaxMarks = *req.MaxMarks
		subject.PassingMarks = *req.PassingMarks
	}
	if subject.PassingMarks > subject.MaxMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "passing marks cannot exceed max marks")
	}

	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// ListByClass returns the class's subjects in display order.
func (s *SubjectService) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	subjects, err := s.subjects.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.subjects.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := s.subjects.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}
