package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/openshiksha/exam-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "roll_number", "enrollment_no", "name", "father_name", "date_of_birth",
		"class_id", "academic_year", "created_at", "updated_at",
	})
}

func TestStudentRepositoryFindByRollAndYear(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	dob := time.Date(2010, 4, 12, 0, 0, 0, 0, time.UTC)
	rows := studentRows().
		AddRow("stu-1", "101", "EN-2025-101", "Asha Verma", "Ramesh Verma", dob,
			"cls-1", "2025", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, roll_number, enrollment_no, name, father_name, date_of_birth,")).
		WithArgs("101", "2025").
		WillReturnRows(rows)

	student, err := repo.FindByRollAndYear(context.Background(), "101", "2025")
	require.NoError(t, err)
	require.Equal(t, "stu-1", student.ID)
	require.Equal(t, "EN-2025-101", student.EnrollmentNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsertReusesStoredRow(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	dob := time.Date(2010, 4, 12, 0, 0, 0, 0, time.UTC)

	// The conflict target keeps the pre-existing row's id, which the
	// RETURNING clause hands back in place of the generated one.
	rows := studentRows().
		AddRow("stu-existing", "101", "EN-2025-101", "Asha Verma", "Ramesh Verma", dob,
			"cls-1", "2025", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO students")).
		WithArgs(sqlmock.AnyArg(), "101", "EN-2025-101", "Asha Verma", "Ramesh Verma", dob,
			"cls-1", "2025", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	student := &models.Student{
		RollNumber:   "101",
		EnrollmentNo: "EN-2025-101",
		Name:         "Asha Verma",
		FatherName:   "Ramesh Verma",
		DateOfBirth:  dob,
		ClassID:      "cls-1",
		AcademicYear: "2025",
	}
	require.NoError(t, repo.Upsert(context.Background(), student))
	require.Equal(t, "stu-existing", student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListIDsByClass(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students WHERE class_id = $1 AND academic_year = $2")).
		WithArgs("cls-1", "2025").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1").AddRow("stu-2"))

	ids, err := repo.ListIDsByClass(context.Background(), "cls-1", "2025")
	require.NoError(t, err)
	require.Equal(t, []string{"stu-1", "stu-2"}, ids)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students WHERE class_id = $1")).
		WithArgs("cls-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-1"))

	ids, err = repo.ListIDsByClass(context.Background(), "cls-1", "")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
