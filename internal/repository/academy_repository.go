package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// AcademyRepository reads tenant rows.
type AcademyRepository struct {
	db *sqlx.DB
}

// NewAcademyRepository constructs the repository.
func NewAcademyRepository(db *sqlx.DB) *AcademyRepository {
	return &AcademyRepository{db: db}
}

// List returns all academies ordered by name.
func (r *AcademyRepository) List(ctx context.Context) ([]models.Academy, error) {
	const query = `SELECT id, name, active_students, suspended_students, created_at, updated_at FROM academies ORDER BY name ASC`
	var academies []models.Academy
	if err := r.db.SelectContext(ctx, &academies, query); err != nil {
		return nil, fmt.Errorf("list academies: %w", err)
	}
	return academies, nil
}

// FindByID fetches one academy.
func (r *AcademyRepository) FindByID(ctx context.Context, id string) (*models.Academy, error) {
	const query = `SELECT id, name, active_students, suspended_students, created_at, updated_at FROM academies WHERE id = $1`
	var academy models.Academy
	if err := r.db.GetContext(ctx, &academy, query, id); err != nil {
		return nil, err
	}
	return &academy, nil
}
