package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

const studentColumns = `id, COALESCE(academy_id, '') AS academy_id, COALESCE(full_name, '') AS full_name,
        COALESCE(username, '') AS username, COALESCE(status, 'active') AS status, created_at`

// StudentRepository reads student accounts from the users table.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListRoster returns every student account across all academies.
func (r *StudentRepository) ListRoster(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 ORDER BY created_at ASC NULLS FIRST, id ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("list student roster: %w", err)
	}
	return students, nil
}

// FindByID fetches a single student account.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND role = $2`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, models.RoleStudent); err != nil {
		return nil, err
	}
	return &student, nil
}
