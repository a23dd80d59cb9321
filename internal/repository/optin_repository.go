package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openshiksha/exam-api/internal/models"
)

// OptInRepository handles additional-subject opt-in persistence.
type OptInRepository struct {
	db *sqlx.DB
}

// NewOptInRepository creates a new opt-in repository.
func NewOptInRepository(db *sqlx.DB) *OptInRepository {
	return &OptInRepository{db: db}
}

// Upsert records an opt-in; repeating the same pair is a no-op.
func (r *OptInRepository) Upsert(ctx context.Context, optIn *models.StudentSubjectOptIn) error {
	if optIn.ID == "" {
		optIn.ID = uuid.NewString()
	}
	if optIn.CreatedAt.IsZero() {
		optIn.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_subject_opt_ins (id, student_id, subject_id, created_at)
        VALUES (:id, :student_id, :subject_id, :created_at)
        ON CONFLICT (student_id, subject_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, optIn); err != nil {
		return fmt.Errorf("upsert opt-in: %w", err)
	}
	return nil
}

// Delete removes the opt-in for one (student, subject) pair.
func (r *OptInRepository) Delete(ctx context.Context, studentID, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM student_subject_opt_ins WHERE student_id = $1 AND subject_id = $2`, studentID, subjectID); err != nil {
		return fmt.Errorf("delete opt-in: %w", err)
	}
	return nil
}

// ListByStudent returns the student's opt-ins with subject names.
func (r *OptInRepository) ListByStudent(ctx context.Context, studentID string) ([]models.OptInDetail, error) {
	const query = `SELECT o.id, o.student_id, o.subject_id, o.created_at,
        sub.name AS subject_name, st.name AS student_name, st.roll_number
        FROM student_subject_opt_ins o
        JOIN subjects sub ON sub.id = o.subject_id
        JOIN students st ON st.id = o.student_id
        WHERE o.student_id = $1
        ORDER BY sub.display_order ASC`
	var optIns []models.OptInDetail
	if err := r.db.SelectContext(ctx, &optIns, query, studentID); err != nil {
		return nil, fmt.Errorf("list opt-ins by student: %w", err)
	}
	return optIns, nil
}

// ListBySubject returns the subject's opted-in students.
func (r *OptInRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.OptInDetail, error) {
	const query = `SELECT o.id, o.student_id, o.subject_id, o.created_at,
        sub.name AS subject_name, st.name AS student_name, st.roll_number
        FROM student_subject_opt_ins o
        JOIN subjects sub ON sub.id = o.subject_id
        JOIN students st ON st.id = o.student_id
        WHERE o.subject_id = $1
        ORDER BY st.roll_number ASC`
	var optIns []models.OptInDetail
	if err := r.db.SelectContext(ctx, &optIns, query, subjectID); err != nil {
		return nil, fmt.Errorf("list opt-ins by subject: %w", err)
	}
	return optIns, nil
}

// SubjectIDSet returns the set of additional subject ids the student opted into.
func (r *OptInRepository) SubjectIDSet(ctx context.Context, studentID string) (map[string]struct{}, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT subject_id FROM student_subject_opt_ins WHERE student_id = $1`, studentID); err != nil {
		return nil, fmt.Errorf("load opt-in set: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
