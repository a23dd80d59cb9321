package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type lookupStudentRepo interface {
	FindByRollAndYear(ctx context.Context, rollNumber, academicYear string) (*models.Student, error)
}

type publicationGate interface {
	Visibility(ctx context.Context, academicYear string, now time.Time) error
}

// SearchRequest is the public result query. RollNumber and AcademicYear are
// mandatory; at least one of EnrollmentNo or DateOfBirth must accompany them
// as a second identity factor.
type SearchRequest struct {
	RollNumber   string `form:"roll_number" json:"roll_number" validate:"required"`
	AcademicYear string `form:"academic_year" json:"academic_year" validate:"required"`
	EnrollmentNo string `form:"enrollment_no" json:"enrollment_no"`
	DateOfBirth  string `form:"date_of_birth" json:"date_of_birth"`
}

// LookupService resolves identity-verified public result queries.
type LookupService struct {
	students     lookupStudentRepo
	results      resultReader
	marks        markDetailReader
	classes      classReader
	publications publicationGate
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewLookupService constructs a LookupService.
func NewLookupService(students lookupStudentRepo, results resultReader, marks markDetailReader, classes classReader, publications publicationGate, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LookupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		students:     students,
		results:      results,
		marks:        marks,
		classes:      classes,
		publications: publications,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Search verifies the caller's identity, consults the publication gate and
// returns the normalized result view. Wrong roll number, wrong second factor
// and missing student all collapse into the same not-found error so the
// endpoint cannot be used to probe identities. The one deliberate exception
// is the not-yet-published error, which carries the scheduled publish date.
func (s *LookupService) Search(ctx context.Context, req SearchRequest, now time.Time) (*models.ResultView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "roll number and academic year required")
	}
	if req.EnrollmentNo == "" && req.DateOfBirth == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment number or date of birth required")
	}

	student, err := s.students.FindByRollAndYear(ctx, req.RollNumber, req.AcademicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.CountLookup("not_found")
			return nil, appErrors.ErrResultNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if !identityMatches(student, req) {
		s.metrics.CountLookup("not_found")
		return nil, appErrors.ErrResultNotFound
	}

	if err := s.publications.Visibility(ctx, req.AcademicYear, now); err != nil {
		s.metrics.CountLookup("gated")
		return nil, err
	}

	key := LookupKey(student.RollNumber, req.AcademicYear)
	var cached models.ResultView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		s.metrics.CountLookup("hit")
		return &cached, nil
	}

	view, err := s.buildView(ctx, student)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, view, 0)
	s.metrics.CountLookup("success")
	return view, nil
}

func (s *LookupService) buildView(ctx context.Context, student *models.Student) (*models.ResultView, error) {
	result, err := s.results.FindByStudentAndYear(ctx, student.ID, student.AcademicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrResultNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	details, err := s.marks.ListDetailsByResult(ctx, result.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}

	className := ""
	if class, err := s.classes.FindByID(ctx, student.ClassID); err == nil {
		className = class.Name
	}

	view := &models.ResultView{
		RollNumber:    student.RollNumber,
		EnrollmentNo:  student.EnrollmentNo,
		StudentName:   student.Name,
		FatherName:    student.FatherName,
		ClassName:     className,
		AcademicYear:  student.AcademicYear,
		TotalMarks:    result.TotalMarks,
		MaxTotalMarks: result.MaxTotalMarks,
		Percentage:    result.Percentage,
		IsPassed:      result.IsPassed,
		Subjects:      make([]models.SubjectMarkView, 0, len(details)),
	}
	for _, detail := range details {
		view.Subjects = append(view.Subjects, models.SubjectMarkView{
			SubjectName:       detail.SubjectName,
			HasPractical:      detail.HasPractical,
			IsAdditional:      detail.IsAdditional,
			MaxMarks:          detail.SubjectMaxMarks,
			MarksObtained:     detail.MarksObtained,
			TheoryMarks:       detail.TheoryMarks,
			PracticalMarks:    detail.PracticalMarks,
			IsTheoryPassed:    detail.IsTheoryPassed,
			IsPracticalPassed: detail.IsPracticalPassed,
			IsPassed:          detail.IsPassed,
		})
	}
	return view, nil
}

// identityMatches verifies the second identity factor. The enrollment number
// must match exactly as stored; the date of birth is compared date-only.
func identityMatches(student *models.Student, req SearchRequest) bool {
	if req.EnrollmentNo != "" {
		return student.EnrollmentNo == req.EnrollmentNo
	}
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return false
	}
	sy, sm, sd := student.DateOfBirth.Date()
	qy, qm, qd := dob.Date()
	return sy == qy && sm == qm && sd == qd
}
