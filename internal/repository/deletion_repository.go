package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openshiksha/exam-api/internal/models"
)

// DeletionRepository implements the bulk result/student removal queries.
//
// Targeted results are those matching the scope (all classes or one class)
// and, when given, the academic year. Students are removed only when they are
// left with zero results after the targeted results are gone: a year-filtered
// delete therefore preserves students with history in other years, while an
// unfiltered delete removes them along with their results.
type DeletionRepository struct {
	db *sqlx.DB
}

// NewDeletionRepository creates a new deletion repository.
func NewDeletionRepository(db *sqlx.DB) *DeletionRepository {
	return &DeletionRepository{db: db}
}

func deletionFilters(classID, academicYear string) (string, []interface{}) {
	clause := ""
	var args []interface{}
	if classID != "" {
		clause += fmt.Sprintf(" AND s.class_id = $%d", len(args)+1)
		args = append(args, classID)
	}
	if academicYear != "" {
		clause += fmt.Sprintf(" AND r.academic_year = $%d", len(args)+1)
		args = append(args, academicYear)
	}
	return clause, args
}

// Preview computes the counts Execute would produce, without deleting.
func (r *DeletionRepository) Preview(ctx context.Context, classID, academicYear string) (*models.DeletionPreview, error) {
	clause, args := deletionFilters(classID, academicYear)

	preview := &models.DeletionPreview{}

	countQuery := `SELECT COUNT(*) FROM results r JOIN students s ON s.id = r.student_id WHERE 1=1` + clause
	if err := r.db.GetContext(ctx, &preview.ResultCount, countQuery, args...); err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}

	detailQuery := `SELECT r.academic_year, COUNT(*) AS result_count
        FROM results r JOIN students s ON s.id = r.student_id WHERE 1=1` + clause +
		` GROUP BY r.academic_year ORDER BY r.academic_year DESC`
	if err := r.db.SelectContext(ctx, &preview.Details, detailQuery, args...); err != nil {
		return nil, fmt.Errorf("detail results: %w", err)
	}

	studentQuery, studentArgs := studentCandidateQuery("SELECT COUNT(*) FROM students s WHERE 1=1", classID, academicYear)
	if err := r.db.GetContext(ctx, &preview.StudentCount, studentQuery, studentArgs...); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}

	return preview, nil
}

// studentCandidateQuery selects students in scope that would have no result
// left once the targeted results are removed.
func studentCandidateQuery(prefix, classID, academicYear string) (string, []interface{}) {
	query := prefix
	var args []interface{}
	if classID != "" {
		query += fmt.Sprintf(" AND s.class_id = $%d", len(args)+1)
		args = append(args, classID)
	}
	if academicYear != "" {
		query += fmt.Sprintf(" AND NOT EXISTS (SELECT 1 FROM results r WHERE r.student_id = s.id AND r.academic_year <> $%d)", len(args)+1)
		args = append(args, academicYear)
	} else {
		// Every result in scope is targeted, so the student keeps nothing.
		query += " AND TRUE"
	}
	return query, args
}

// Execute removes the targeted subject marks, results and orphaned students
// in one transaction and reports how many rows went away.
func (r *DeletionRepository) Execute(ctx context.Context, classID, academicYear string) (*models.DeletionOutcome, error) {
	clause, args := deletionFilters(classID, academicYear)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	markQuery := `DELETE FROM subject_marks WHERE result_id IN (
        SELECT r.id FROM results r JOIN students s ON s.id = r.student_id WHERE 1=1` + clause + `)`
	if _, err := tx.ExecContext(ctx, markQuery, args...); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("delete subject marks: %w", err)
	}

	resultQuery := `DELETE FROM results WHERE id IN (
        SELECT r.id FROM results r JOIN students s ON s.id = r.student_id WHERE 1=1` + clause + `)`
	resultRes, err := tx.ExecContext(ctx, resultQuery, args...)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("delete results: %w", err)
	}

	studentQuery := `DELETE FROM students WHERE id IN (SELECT s.id FROM students s WHERE 1=1`
	var studentArgs []interface{}
	if classID != "" {
		studentQuery += fmt.Sprintf(" AND s.class_id = $%d", len(studentArgs)+1)
		studentArgs = append(studentArgs, classID)
	}
	studentQuery += ` AND NOT EXISTS (SELECT 1 FROM results r WHERE r.student_id = s.id))`
	studentRes, err := tx.ExecContext(ctx, studentQuery, studentArgs...)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("delete students: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk delete: %w", err)
	}

	outcome := &models.DeletionOutcome{}
	if n, err := resultRes.RowsAffected(); err == nil {
		outcome.DeletedResultCount = int(n)
	}
	if n, err := studentRes.RowsAffected(); err == nil {
		outcome.DeletedStudentCount = int(n)
	}
	return outcome, nil
}
