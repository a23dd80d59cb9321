package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openshiksha/exam-api/internal/models"
)

const studentColumns = `id, roll_number, enrollment_no, name, father_name, date_of_birth,
        class_id, academic_year, created_at, updated_at`

// StudentRepository handles student persistence.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByRollAndYear looks a student up by the (roll_number, academic_year) key.
func (r *StudentRepository) FindByRollAndYear(ctx context.Context, rollNumber, academicYear string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE roll_number = $1 AND academic_year = $2`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, rollNumber, academicYear); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByID returns one student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Upsert creates the student or, when the (roll_number, academic_year) key
// already exists, refreshes the identity fields. The unique key makes
// concurrent ingestion of the same file converge on one row.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO students (id, roll_number, enrollment_no, name, father_name, date_of_birth,
        class_id, academic_year, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (roll_number, academic_year)
        DO UPDATE SET enrollment_no = EXCLUDED.enrollment_no, name = EXCLUDED.name,
        father_name = EXCLUDED.father_name, date_of_birth = EXCLUDED.date_of_birth,
        class_id = EXCLUDED.class_id, updated_at = EXCLUDED.updated_at
        RETURNING %s`, studentColumns)
	var stored models.Student
	if err := r.db.GetContext(ctx, &stored, query,
		student.ID, student.RollNumber, student.EnrollmentNo, student.Name, student.FatherName,
		student.DateOfBirth, student.ClassID, student.AcademicYear, student.CreatedAt, student.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	*student = stored
	return nil
}

// ListIDsByClass returns student ids for a class, optionally scoped to one year.
func (r *StudentRepository) ListIDsByClass(ctx context.Context, classID, academicYear string) ([]string, error) {
	query := `SELECT id FROM students WHERE class_id = $1`
	args := []interface{}{classID}
	if academicYear != "" {
		query += " AND academic_year = $2"
		args = append(args, academicYear)
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list student ids: %w", err)
	}
	return ids, nil
}
