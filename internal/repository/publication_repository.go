package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openshiksha/exam-api/internal/models"
)

const publicationColumns = `id, academic_year, publish_date, is_published, created_at, updated_at`

// PublicationRepository handles result publication persistence.
type PublicationRepository struct {
	db *sqlx.DB
}

// NewPublicationRepository creates a new publication repository.
func NewPublicationRepository(db *sqlx.DB) *PublicationRepository {
	return &PublicationRepository{db: db}
}

// FindByYear returns the publication record for one academic year.
func (r *PublicationRepository) FindByYear(ctx context.Context, academicYear string) (*models.ResultPublication, error) {
	query := fmt.Sprintf(`SELECT %s FROM result_publications WHERE academic_year = $1`, publicationColumns)
	var pub models.ResultPublication
	if err := r.db.GetContext(ctx, &pub, query, academicYear); err != nil {
		return nil, err
	}
	return &pub, nil
}

// List returns all publication records, newest year first.
func (r *PublicationRepository) List(ctx context.Context) ([]models.ResultPublication, error) {
	query := fmt.Sprintf(`SELECT %s FROM result_publications ORDER BY academic_year DESC`, publicationColumns)
	var pubs []models.ResultPublication
	if err := r.db.SelectContext(ctx, &pubs, query); err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	return pubs, nil
}

// Upsert creates or replaces the publication record for a year.
func (r *PublicationRepository) Upsert(ctx context.Context, pub *models.ResultPublication) error {
	if pub.ID == "" {
		pub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pub.CreatedAt.IsZero() {
		pub.CreatedAt = now
	}
	pub.UpdatedAt = now
	const query = `INSERT INTO result_publications (id, academic_year, publish_date, is_published, created_at, updated_at)
        VALUES (:id, :academic_year, :publish_date, :is_published, :created_at, :updated_at)
        ON CONFLICT (academic_year)
        DO UPDATE SET publish_date = EXCLUDED.publish_date, is_published = EXCLUDED.is_published,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pub); err != nil {
		return fmt.Errorf("upsert publication: %w", err)
	}
	return nil
}

// SetPublished flips the explicit publish override for a year.
func (r *PublicationRepository) SetPublished(ctx context.Context, academicYear string, published bool) error {
	const query = `UPDATE result_publications SET is_published = $2, updated_at = $3 WHERE academic_year = $1`
	res, err := r.db.ExecContext(ctx, query, academicYear, published, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("set published: no publication for year %s", academicYear)
	}
	return nil
}
