package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// PricingRepository persists franchise settings.
type PricingRepository struct {
	db *sqlx.DB
}

// NewPricingRepository constructs the repository.
func NewPricingRepository(db *sqlx.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// ListAll returns every configured policy keyed by academy id.
func (r *PricingRepository) ListAll(ctx context.Context) (map[string]models.PricingPolicy, error) {
	const query = `SELECT academy_id, billing_type, COALESCE(price_per_student, 0) AS price_per_student,
        COALESCE(flat_rate_amount, 0) AS flat_rate_amount, updated_by, updated_at FROM franchise_settings`
	var rows []models.PricingPolicy
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list franchise settings: %w", err)
	}
	policies := make(map[string]models.PricingPolicy, len(rows))
	for _, row := range rows {
		policies[row.AcademyID] = row
	}
	return policies, nil
}

// FindByAcademy returns the policy of one academy.
func (r *PricingRepository) FindByAcademy(ctx context.Context, academyID string) (*models.PricingPolicy, error) {
	const query = `SELECT academy_id, billing_type, COALESCE(price_per_student, 0) AS price_per_student,
        COALESCE(flat_rate_amount, 0) AS flat_rate_amount, updated_by, updated_at FROM franchise_settings WHERE academy_id = $1`
	var policy models.PricingPolicy
	if err := r.db.GetContext(ctx, &policy, query, academyID); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Upsert creates or replaces the policy of an academy.
func (r *PricingRepository) Upsert(ctx context.Context, policy *models.PricingPolicy) error {
	policy.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO franchise_settings (academy_id, billing_type, price_per_student, flat_rate_amount, updated_by, updated_at)
VALUES (:academy_id, :billing_type, :price_per_student, :flat_rate_amount, :updated_by, :updated_at)
ON CONFLICT (academy_id)
DO UPDATE SET billing_type = EXCLUDED.billing_type, price_per_student = EXCLUDED.price_per_student,
              flat_rate_amount = EXCLUDED.flat_rate_amount, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, policy); err != nil {
		return fmt.Errorf("upsert franchise settings: %w", err)
	}
	return nil
}
