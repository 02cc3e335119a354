package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

type recordingUpserter struct {
	policies []models.PricingPolicy
	failOn   string
}

func (r *recordingUpserter) Upsert(ctx context.Context, policy *models.PricingPolicy) error {
	if policy.AcademyID == r.failOn {
		return errors.New("connection reset")
	}
	r.policies = append(r.policies, *policy)
	return nil
}

const validSeed = `
academies:
  - academy_id: acad-001
    billing_type: per_student
    price_per_student: 15000
  - academy_id: " acad-002 "
    billing_type: flat_rate
    flat_rate_amount: 300000
`

func TestParseSeed(t *testing.T) {
	policies, err := parseSeed(strings.NewReader(validSeed), validator.New())
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, models.BillingTypePerStudent, policies[0].BillingType)
	assert.Equal(t, 15000.0, policies[0].PricePerStudent)
	assert.Equal(t, "acad-002", policies[1].AcademyID)
	assert.Equal(t, 300000.0, policies[1].FlatRateAmount)
}

func TestParseSeedRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"no academies":  "academies: []\n",
		"unknown type":  "academies:\n  - academy_id: a\n    billing_type: tiered\n",
		"negative":      "academies:\n  - academy_id: a\n    billing_type: per_student\n    price_per_student: -1\n",
		"duplicate":     "academies:\n  - academy_id: a\n    billing_type: per_student\n  - academy_id: a\n    billing_type: flat_rate\n",
		"unknown field": "academies:\n  - academy_id: a\n    billing_type: per_student\n    discount: 5\n",
		"missing id":    "academies:\n  - billing_type: per_student\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSeed(strings.NewReader(body), validator.New())
			assert.Error(t, err)
		})
	}
}

func TestApplySeed(t *testing.T) {
	policies, err := parseSeed(strings.NewReader(validSeed), validator.New())
	require.NoError(t, err)

	repo := &recordingUpserter{}
	n, err := applySeed(context.Background(), repo, policies, "ops-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NotNil(t, repo.policies[0].UpdatedBy)
	assert.Equal(t, "ops-1", *repo.policies[0].UpdatedBy)
}

func TestApplySeedStopsOnFailure(t *testing.T) {
	policies, err := parseSeed(strings.NewReader(validSeed), validator.New())
	require.NoError(t, err)

	repo := &recordingUpserter{failOn: "acad-002"}
	n, err := applySeed(context.Background(), repo, policies, "")
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, repo.policies[0].UpdatedBy)
}
