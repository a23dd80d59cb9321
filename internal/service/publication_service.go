package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type publicationRepo interface {
	FindByYear(ctx context.Context, academicYear string) (*models.ResultPublication, error)
	List(ctx context.Context) ([]models.ResultPublication, error)
	Upsert(ctx context.Context, pub *models.ResultPublication) error
	SetPublished(ctx context.Context, academicYear string, published bool) error
}

// UpsertPublicationRequest schedules or overrides publication for one year.
type UpsertPublicationRequest struct {
	AcademicYear string    `json:"academic_year" validate:"required"`
	PublishDate  time.Time `json:"publish_date" validate:"required"`
	IsPublished  bool      `json:"is_published"`
}

// PublicationService controls when results become externally visible.
type PublicationService struct {
	publications publicationRepo
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPublicationService constructs a PublicationService.
func NewPublicationService(publications publicationRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PublicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicationService{publications: publications, cache: cache, validator: validate, logger: logger}
}

// List returns every publication record.
func (s *PublicationService) List(ctx context.Context) ([]models.ResultPublication, error) {
	pubs, err := s.publications.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list publications")
	}
	return pubs, nil
}

// Upsert creates or replaces the publication schedule for a year.
func (s *PublicationService) Upsert(ctx context.Context, req UpsertPublicationRequest) (*models.ResultPublication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publication payload")
	}
	pub := &models.ResultPublication{
		AcademicYear: req.AcademicYear,
		PublishDate:  req.PublishDate.UTC(),
		IsPublished:  req.IsPublished,
	}
	if err := s.publications.Upsert(ctx, pub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store publication")
	}
	s.cache.Invalidate(ctx, YearPattern(req.AcademicYear))
	s.logger.Info("publication upserted",
		zap.String("academic_year", req.AcademicYear),
		zap.Time("publish_date", pub.PublishDate),
		zap.Bool("is_published", pub.IsPublished),
	)
	return pub, nil
}

// Toggle flips the explicit publish override for a year (publish-now /
// unpublish) independent of the stored date.
func (s *PublicationService) Toggle(ctx context.Context, academicYear string) (*models.ResultPublication, error) {
	if academicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic year required")
	}
	pub, err := s.publications.FindByYear(ctx, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "publication not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load publication")
	}
	if err := s.publications.SetPublished(ctx, academicYear, !pub.IsPublished); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle publication")
	}
	pub.IsPublished = !pub.IsPublished
	s.cache.Invalidate(ctx, YearPattern(academicYear))
	return pub, nil
}

// Visibility reports whether results for the year may be exposed at the
// given instant. It returns nil when visible, ErrNotAvailable when no
// publication record exists, and ErrNotPublished (carrying the scheduled
// date) when the window has not opened. Callers must pass one
// consistently-read "now" for the whole request.
func (s *PublicationService) Visibility(ctx context.Context, academicYear string, now time.Time) error {
	pub, err := s.publications.FindByYear(ctx, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotAvailable
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load publication")
	}
	if pub.VisibleAt(now) {
		return nil
	}
	return appErrors.WithDetails(appErrors.ErrNotPublished, map[string]interface{}{
		"publish_date": pub.PublishDate,
	})
}

// IsVisible is the boolean form of Visibility.
func (s *PublicationService) IsVisible(ctx context.Context, academicYear string, now time.Time) (bool, error) {
	err := s.Visibility(ctx, academicYear, now)
	if err == nil {
		return true, nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && (appErr.Code == appErrors.ErrNotAvailable.Code || appErr.Code == appErrors.ErrNotPublished.Code) {
		return false, nil
	}
	return false, err
}
