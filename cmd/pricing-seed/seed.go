package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

type pricingUpserter interface {
	Upsert(ctx context.Context, policy *models.PricingPolicy) error
}

type seedFile struct {
	Academies []seedEntry `yaml:"academies"`
}

type seedEntry struct {
	AcademyID       string  `yaml:"academy_id" validate:"required"`
	BillingType     string  `yaml:"billing_type" validate:"required,oneof=per_student flat_rate"`
	PricePerStudent float64 `yaml:"price_per_student" validate:"gte=0"`
	FlatRateAmount  float64 `yaml:"flat_rate_amount" validate:"gte=0"`
}

// parseSeed decodes and validates the whole file before anything is written.
func parseSeed(r io.Reader, validate *validator.Validate) ([]models.PricingPolicy, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("seed file is empty")
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if len(file.Academies) == 0 {
		return nil, fmt.Errorf("seed file lists no academies")
	}

	seen := make(map[string]struct{}, len(file.Academies))
	policies := make([]models.PricingPolicy, 0, len(file.Academies))
	for i, entry := range file.Academies {
		entry.AcademyID = strings.TrimSpace(entry.AcademyID)
		if err := validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("academies[%d]: %w", i, err)
		}
		if _, dup := seen[entry.AcademyID]; dup {
			return nil, fmt.Errorf("academies[%d]: duplicate academy_id %q", i, entry.AcademyID)
		}
		seen[entry.AcademyID] = struct{}{}
		policies = append(policies, models.PricingPolicy{
			AcademyID:       entry.AcademyID,
			BillingType:     models.BillingType(entry.BillingType),
			PricePerStudent: entry.PricePerStudent,
			FlatRateAmount:  entry.FlatRateAmount,
		})
	}
	return policies, nil
}

func applySeed(ctx context.Context, repo pricingUpserter, policies []models.PricingPolicy, actor string) (int, error) {
	var updatedBy *string
	if actor != "" {
		updatedBy = &actor
	}
	for i := range policies {
		policies[i].UpdatedBy = updatedBy
		if err := repo.Upsert(ctx, &policies[i]); err != nil {
			return i, fmt.Errorf("upsert pricing for %s: %w", policies[i].AcademyID, err)
		}
	}
	return len(policies), nil
}
