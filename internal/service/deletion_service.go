package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type deletionRepo interface {
	Preview(ctx context.Context, classID, academicYear string) (*models.DeletionPreview, error)
	Execute(ctx context.Context, classID, academicYear string) (*models.DeletionOutcome, error)
}

// BulkDeleteRequest scopes a bulk delete. ClassID is required for the
// class-wise scope; AcademicYear optionally narrows either scope to one year.
type BulkDeleteRequest struct {
	Scope        models.DeletionScope `json:"scope"`
	ClassID      string               `json:"class_id,omitempty"`
	AcademicYear string               `json:"academic_year,omitempty"`
}

// DeletionService reverses ingestion. Preview is the caller's only safety
// check before Execute; both apply identical scoping.
type DeletionService struct {
	deletions deletionRepo
	cache     *CacheService
	logger    *zap.Logger
}

// NewDeletionService constructs a DeletionService.
func NewDeletionService(deletions deletionRepo, cache *CacheService, logger *zap.Logger) *DeletionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeletionService{deletions: deletions, cache: cache, logger: logger}
}

func (s *DeletionService) resolveScope(req BulkDeleteRequest) (string, error) {
	switch req.Scope {
	case models.DeletionScopeAll:
		return "", nil
	case models.DeletionScopeClassWise:
		if req.ClassID == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "class required for class-wise deletion")
		}
		return req.ClassID, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "scope must be all or class_wise")
	}
}

// Preview reports what Execute would remove, without side effects.
func (s *DeletionService) Preview(ctx context.Context, req BulkDeleteRequest) (*models.DeletionPreview, error) {
	classID, err := s.resolveScope(req)
	if err != nil {
		return nil, err
	}
	preview, err := s.deletions.Preview(ctx, classID, req.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to preview deletion")
	}
	return preview, nil
}

// Execute removes the targeted marks, results and orphaned students. A
// year-filtered delete keeps students who hold results in other years; an
// unfiltered delete removes every student left without results.
func (s *DeletionService) Execute(ctx context.Context, req BulkDeleteRequest) (*models.DeletionOutcome, error) {
	classID, err := s.resolveScope(req)
	if err != nil {
		return nil, err
	}
	outcome, err := s.deletions.Execute(ctx, classID, req.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to execute deletion")
	}

	if req.AcademicYear != "" {
		s.cache.Invalidate(ctx, YearPattern(req.AcademicYear))
	} else {
		s.cache.Invalidate(ctx, "lookup:*")
	}

	s.logger.Info("bulk deletion executed",
		zap.String("scope", string(req.Scope)),
		zap.String("class_id", req.ClassID),
		zap.String("academic_year", req.AcademicYear),
		zap.Int("deleted_results", outcome.DeletedResultCount),
		zap.Int("deleted_students", outcome.DeletedStudentCount),
	)
	return outcome, nil
}
