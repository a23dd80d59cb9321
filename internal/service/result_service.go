package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type resultStore interface {
	FindByID(ctx context.Context, id string) (*models.Result, error)
	UpdateAggregates(ctx context.Context, result *models.Result) error
}

type markDetailReader interface {
	ListDetailsByResult(ctx context.Context, resultID string) ([]models.MarkDetail, error)
}

// MarkInput carries validated numeric marks for one subject. Nil components
// default to zero at evaluation time; callers that want "not provided" to
// mean "skip the subject" must not call EvaluateMark at all.
type MarkInput struct {
	Marks     *float64
	Theory    *float64
	Practical *float64
}

// EvaluateMark applies the per-subject pass rule and produces the mark row to
// store. This is the single implementation of the rule; both the direct-edit
// path and bulk ingestion delegate here.
//
// Traditional subjects pass when the obtained mark reaches the passing mark.
// Theory+practical subjects must clear three gates: the theory threshold, the
// practical threshold, and the combined threshold.
func EvaluateMark(subject *models.Subject, input MarkInput) models.SubjectMark {
	mark := models.SubjectMark{SubjectID: subject.ID}

	if !subject.HasPractical {
		obtained := deref(input.Marks)
		mark.MarksObtained = obtained
		mark.IsPassed = obtained >= subject.PassingMarks
		return mark
	}

	theory := deref(input.Theory)
	practical := deref(input.Practical)
	combined := theory + practical

	theoryPassed := theory >= deref(subject.TheoryPassingMarks)
	practicalPassed := practical >= deref(subject.PracticalPassingMarks)
	totalPassed := combined >= subject.PassingMarks

	mark.TheoryMarks = &theory
	mark.PracticalMarks = &practical
	mark.MarksObtained = combined
	mark.IsTheoryPassed = &theoryPassed
	mark.IsPracticalPassed = &practicalPassed
	mark.IsPassed = theoryPassed && practicalPassed && totalPassed
	return mark
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ResultService recomputes the cached aggregate fields of a result from its
// stored subject marks.
type ResultService struct {
	results resultStore
	marks   markDetailReader
	logger  *zap.Logger
}

// NewResultService constructs a ResultService.
func NewResultService(results resultStore, marks markDetailReader, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{results: results, marks: marks, logger: logger}
}

// Recompute reloads the result's marks and rewrites its aggregate fields.
// Additional subjects never contribute to the total or the max, but a failing
// additional subject still fails the student overall. Calling Recompute again
// with unchanged marks yields identical aggregates.
func (s *ResultService) Recompute(ctx context.Context, resultID string) (*models.Result, error) {
	result, err := s.results.FindByID(ctx, resultID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}

	details, err := s.marks.ListDetailsByResult(ctx, resultID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject marks")
	}

	var total, max float64
	passed := true
	for _, detail := range details {
		if !detail.IsAdditional {
			if detail.HasPractical {
				total += deref(detail.TheoryMarks) + deref(detail.PracticalMarks)
			} else {
				total += detail.MarksObtained
			}
			max += detail.SubjectMaxMarks
		}
		if !detail.IsPassed {
			passed = false
		}
	}

	result.TotalMarks = total
	result.MaxTotalMarks = max
	if max > 0 {
		result.Percentage = total / max * 100
	} else {
		result.Percentage = 0
	}
	result.IsPassed = passed

	if err := s.results.UpdateAggregates(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store aggregates")
	}

	s.logger.Debug("result recomputed",
		zap.String("result_id", resultID),
		zap.Float64("total", total),
		zap.Float64("max", max),
		zap.Bool("passed", passed),
	)

	return result, nil
}
