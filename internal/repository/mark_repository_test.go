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

func newMarkRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMarkRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMarkRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_marks")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mark := &models.SubjectMark{
		ResultID:      "res-1",
		SubjectID:     "sub-1",
		MarksObtained: 40,
		IsPassed:      true,
	}
	require.NoError(t, repo.Upsert(context.Background(), mark))
	require.NotEmpty(t, mark.ID)
	require.False(t, mark.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryListDetailsByResult(t *testing.T) {
	db, mock, cleanup := newMarkRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	theory := 25.0
	practical := 12.0
	passed := true
	rows := sqlmock.NewRows([]string{
		"id", "result_id", "subject_id", "marks_obtained", "theory_marks", "practical_marks",
		"is_theory_passed", "is_practical_passed", "is_passed", "created_at", "updated_at",
		"subject_name", "subject_order", "has_practical", "is_additional",
		"subject_max_marks", "subject_passing_marks",
		"theory_max_marks", "practical_max_marks", "theory_passing_marks", "practical_passing_marks",
	}).
		AddRow("mrk-1", "res-1", "sub-math", 40.0, nil, nil,
			nil, nil, true, time.Now(), time.Now(),
			"Mathematics", 1, false, false, 100.0, 33.0, nil, nil, nil, nil).
		AddRow("mrk-2", "res-1", "sub-sci", 37.0, theory, practical,
			passed, passed, true, time.Now(), time.Now(),
			"Science", 2, true, false, 100.0, 33.0, 70.0, 30.0, 23.0, 10.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT m.id, m.result_id, m.subject_id, m.marks_obtained, m.theory_marks, m.practical_marks,")).
		WithArgs("res-1").
		WillReturnRows(rows)

	details, err := repo.ListDetailsByResult(context.Background(), "res-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.Equal(t, "Mathematics", details[0].SubjectName)
	require.Nil(t, details[0].TheoryMarks)
	require.True(t, details[1].HasPractical)
	require.NotNil(t, details[1].PracticalMarks)
	require.Equal(t, 12.0, *details[1].PracticalMarks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryDeleteByResultAndSubject(t *testing.T) {
	db, mock, cleanup := newMarkRepoMock(t)
	defer cleanup()

	repo := NewMarkRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subject_marks WHERE result_id = $1 AND subject_id = $2")).
		WithArgs("res-1", "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteByResultAndSubject(context.Background(), "res-1", "sub-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
