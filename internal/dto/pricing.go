package dto

import (
	"time"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// UpdatePricingRequest is the PUT /admin/academies/:id/pricing payload.
type UpdatePricingRequest struct {
	BillingType     models.BillingType `json:"billingType" validate:"required,oneof=per_student flat_rate"`
	PricePerStudent float64            `json:"pricePerStudent" validate:"gte=0"`
	FlatRateAmount  float64            `json:"flatRateAmount" validate:"gte=0"`
}

// PricingResponse exposes the effective policy of an academy.
type PricingResponse struct {
	AcademyID       string             `json:"academyId"`
	BillingType     models.BillingType `json:"billingType"`
	PricePerStudent float64            `json:"pricePerStudent"`
	FlatRateAmount  float64            `json:"flatRateAmount"`
	Configured      bool               `json:"configured"`
	UpdatedAt       *time.Time         `json:"updatedAt,omitempty"`
}

// AcademyResponse lists an academy with its live counters.
type AcademyResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ActiveStudents    int    `json:"activeStudents"`
	SuspendedStudents int    `json:"suspendedStudents"`
}
