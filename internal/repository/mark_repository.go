package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openshiksha/exam-api/internal/models"
)

// MarkRepository handles subject mark persistence.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new mark repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// Upsert inserts or updates the mark for one (result, subject) pair.
func (r *MarkRepository) Upsert(ctx context.Context, mark *models.SubjectMark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now
	const query = `INSERT INTO subject_marks (id, result_id, subject_id, marks_obtained, theory_marks,
        practical_marks, is_theory_passed, is_practical_passed, is_passed, created_at, updated_at)
        VALUES (:id, :result_id, :subject_id, :marks_obtained, :theory_marks,
        :practical_marks, :is_theory_passed, :is_practical_passed, :is_passed, :created_at, :updated_at)
        ON CONFLICT (result_id, subject_id)
        DO UPDATE SET marks_obtained = EXCLUDED.marks_obtained, theory_marks = EXCLUDED.theory_marks,
        practical_marks = EXCLUDED.practical_marks, is_theory_passed = EXCLUDED.is_theory_passed,
        is_practical_passed = EXCLUDED.is_practical_passed, is_passed = EXCLUDED.is_passed,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("upsert subject mark: %w", err)
	}
	return nil
}

// ListDetailsByResult returns the result's marks joined with their subjects,
// in subject display order.
func (r *MarkRepository) ListDetailsByResult(ctx context.Context, resultID string) ([]models.MarkDetail, error) {
	const query = `SELECT m.id, m.result_id, m.subject_id, m.marks_obtained, m.theory_marks, m.practical_marks,
        m.is_theory_passed, m.is_practical_passed, m.is_passed, m.created_at, m.updated_at,
        s.name AS subject_name, s.display_order AS subject_order, s.has_practical, s.is_additional,
        s.max_marks AS subject_max_marks, s.passing_marks AS subject_passing_marks,
        s.theory_max_marks, s.practical_max_marks, s.theory_passing_marks, s.practical_passing_marks
        FROM subject_marks m
        JOIN subjects s ON s.id = m.subject_id
        WHERE m.result_id = $1
        ORDER BY s.display_order ASC, s.name ASC`
	var details []models.MarkDetail
	if err := r.db.SelectContext(ctx, &details, query, resultID); err != nil {
		return nil, fmt.Errorf("list mark details: %w", err)
	}
	return details, nil
}

// DeleteByResultAndSubject removes the mark for one (result, subject) pair.
func (r *MarkRepository) DeleteByResultAndSubject(ctx context.Context, resultID, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subject_marks WHERE result_id = $1 AND subject_id = $2`, resultID, subjectID); err != nil {
		return fmt.Errorf("delete subject mark: %w", err)
	}
	return nil
}
