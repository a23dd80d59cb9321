package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshiksha/exam-api/internal/models"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
)

type mockPublicationRepo struct {
	byYear map[string]*models.ResultPublication
}

func (m *mockPublicationRepo) FindByYear(ctx context.Context, academicYear string) (*models.ResultPublication, error) {
	pub, ok := m.byYear[academicYear]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *pub
	return &copied, nil
}

func (m *mockPublicationRepo) List(ctx context.Context) ([]models.ResultPublication, error) {
	var out []models.ResultPublication
	for _, pub := range m.byYear {
		out = append(out, *pub)
	}
	return out, nil
}

func (m *mockPublicationRepo) Upsert(ctx context.Context, pub *models.ResultPublication) error {
	if m.byYear == nil {
		m.byYear = make(map[string]*models.ResultPublication)
	}
	copied := *pub
	m.byYear[pub.AcademicYear] = &copied
	return nil
}

func (m *mockPublicationRepo) SetPublished(ctx context.Context, academicYear string, published bool) error {
	pub, ok := m.byYear[academicYear]
	if !ok {
		return sql.ErrNoRows
	}
	pub.IsPublished = published
	return nil
}

func newPublicationFixture() (*PublicationService, *mockPublicationRepo) {
	repo := &mockPublicationRepo{byYear: make(map[string]*models.ResultPublication)}
	cache := NewCacheService(nil, nil, 0, nil, false)
	return NewPublicationService(repo, cache, nil, nil), repo
}

func TestVisibilityWithoutRecord(t *testing.T) {
	svc, _ := newPublicationFixture()

	err := svc.Visibility(context.Background(), "2025", time.Now())
	assert.ErrorIs(t, err, appErrors.ErrNotAvailable)
}

func TestVisibilityGate(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		publishDate time.Time
		isPublished bool
		visible     bool
	}{
		{"override on, date in future", now.Add(48 * time.Hour), true, true},
		{"override off, date passed", now.Add(-time.Hour), false, true},
		{"override off, date exactly now", now, false, true},
		{"override off, date in future", now.Add(time.Minute), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newPublicationFixture()
			repo.byYear["2025"] = &models.ResultPublication{
				AcademicYear: "2025",
				PublishDate:  tt.publishDate,
				IsPublished:  tt.isPublished,
			}

			err := svc.Visibility(context.Background(), "2025", now)
			if tt.visible {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrNotPublished.Code, appErr.Code)
			assert.Equal(t, tt.publishDate, appErr.Details["publish_date"], "scheduled date is disclosed")
		})
	}
}

func TestIsVisibleSwallowsGateErrors(t *testing.T) {
	svc, repo := newPublicationFixture()
	now := time.Now()

	visible, err := svc.IsVisible(context.Background(), "2025", now)
	require.NoError(t, err)
	assert.False(t, visible)

	repo.byYear["2025"] = &models.ResultPublication{AcademicYear: "2025", PublishDate: now.Add(-time.Hour)}
	visible, err = svc.IsVisible(context.Background(), "2025", now)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestUpsertPublicationValidates(t *testing.T) {
	svc, _ := newPublicationFixture()

	_, err := svc.Upsert(context.Background(), UpsertPublicationRequest{AcademicYear: "2025"})
	require.Error(t, err)

	pub, err := svc.Upsert(context.Background(), UpsertPublicationRequest{
		AcademicYear: "2025",
		PublishDate:  time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025", pub.AcademicYear)
	assert.False(t, pub.IsPublished)
}

func TestTogglePublication(t *testing.T) {
	svc, repo := newPublicationFixture()
	repo.byYear["2025"] = &models.ResultPublication{AcademicYear: "2025", PublishDate: time.Now().Add(time.Hour)}

	pub, err := svc.Toggle(context.Background(), "2025")
	require.NoError(t, err)
	assert.True(t, pub.IsPublished)
	assert.True(t, repo.byYear["2025"].IsPublished)

	pub, err = svc.Toggle(context.Background(), "2025")
	require.NoError(t, err)
	assert.False(t, pub.IsPublished)
}

func TestToggleUnknownYear(t *testing.T) {
	svc, _ := newPublicationFixture()

	_, err := svc.Toggle(context.Background(), "1999")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
