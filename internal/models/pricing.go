package models

import "time"

// BillingType selects the pricing model of an academy.
type BillingType string

const (
	BillingTypePerStudent BillingType = "per_student"
	BillingTypeFlatRate   BillingType = "flat_rate"
)

// PricingPolicy is the franchise_settings row for one academy.
type PricingPolicy struct {
	AcademyID       string      `db:"academy_id" json:"academy_id"`
	BillingType     BillingType `db:"billing_type" json:"billing_type"`
	PricePerStudent float64     `db:"price_per_student" json:"price_per_student"`
	FlatRateAmount  float64     `db:"flat_rate_amount" json:"flat_rate_amount"`
	UpdatedBy       *string     `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// DefaultPricingPolicy is applied to academies without franchise settings.
func DefaultPricingPolicy(academyID string) PricingPolicy {
	return PricingPolicy{AcademyID: academyID, BillingType: BillingTypePerStudent}
}
