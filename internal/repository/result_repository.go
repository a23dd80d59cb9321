package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openshiksha/exam-api/internal/models"
)

const resultColumns = `id, student_id, academic_year, total_marks, max_total_marks, percentage,
        is_passed, created_at, updated_at`

// ResultRepository handles result persistence.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// FindByID returns one result.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results WHERE id = $1`, resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByStudentAndYear returns the student's result for one academic year.
func (r *ResultRepository) FindByStudentAndYear(ctx context.Context, studentID, academicYear string) (*models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results WHERE student_id = $1 AND academic_year = $2`, resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, studentID, academicYear); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindOrCreate returns the result row for (student, year), creating an empty
// one when absent. The unique key serializes concurrent writers on the pair.
func (r *ResultRepository) FindOrCreate(ctx context.Context, studentID, academicYear string) (*models.Result, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO results (id, student_id, academic_year, total_marks, max_total_marks,
        percentage, is_passed, created_at, updated_at)
        VALUES ($1, $2, $3, 0, 0, 0, FALSE, $4, $4)
        ON CONFLICT (student_id, academic_year)
        DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING %s`, resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, uuid.NewString(), studentID, academicYear, now); err != nil {
		return nil, fmt.Errorf("find or create result: %w", err)
	}
	return &result, nil
}

// UpdateAggregates writes the recomputed aggregate fields.
func (r *ResultRepository) UpdateAggregates(ctx context.Context, result *models.Result) error {
	const query = `UPDATE results SET total_marks = $2, max_total_marks = $3, percentage = $4,
        is_passed = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, result.ID, result.TotalMarks, result.MaxTotalMarks,
		result.Percentage, result.IsPassed, time.Now().UTC()); err != nil {
		return fmt.Errorf("update result aggregates: %w", err)
	}
	return nil
}

// Delete removes a result and its subject marks.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_marks WHERE result_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete subject marks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete result: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result delete: %w", err)
	}
	return nil
}

// DeleteByClassAndYear removes every result (and its marks) for the class's
// students in the given year. Used by ingestion's clear-existing reset.
func (r *ResultRepository) DeleteByClassAndYear(ctx context.Context, classID, academicYear string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const deleteMarks = `DELETE FROM subject_marks WHERE result_id IN (
        SELECT r.id FROM results r JOIN students s ON s.id = r.student_id
        WHERE s.class_id = $1 AND r.academic_year = $2)`
	if _, err := tx.ExecContext(ctx, deleteMarks, classID, academicYear); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear subject marks: %w", err)
	}
	const deleteResults = `DELETE FROM results WHERE student_id IN (
        SELECT id FROM students WHERE class_id = $1) AND academic_year = $2`
	if _, err := tx.ExecContext(ctx, deleteResults, classID, academicYear); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear results: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}
