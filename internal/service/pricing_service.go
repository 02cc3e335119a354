package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/dto"
	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type pricingStore interface {
	FindByAcademy(ctx context.Context, academyID string) (*models.PricingPolicy, error)
	Upsert(ctx context.Context, policy *models.PricingPolicy) error
}

type academyStore interface {
	List(ctx context.Context) ([]models.Academy, error)
	FindByID(ctx context.Context, id string) (*models.Academy, error)
}

// PricingService manages academies and their franchise settings.
type PricingService struct {
	pricing   pricingStore
	academies academyStore
	audit     auditWriter
	billing   billingCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPricingService constructs the service.
func NewPricingService(pricing pricingStore, academies academyStore, audit auditWriter, billing billingCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PricingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{pricing: pricing, academies: academies, audit: audit, billing: billing, validator: validate, logger: logger}
}

// ListAcademies returns every academy with its live counters.
func (s *PricingService) ListAcademies(ctx context.Context) ([]dto.AcademyResponse, error) {
	academies, err := s.academies.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academies")
	}
	resp := make([]dto.AcademyResponse, 0, len(academies))
	for _, a := range academies {
		resp = append(resp, dto.AcademyResponse{ID: a.ID, Name: a.Name, ActiveStudents: a.ActiveStudents, SuspendedStudents: a.SuspendedStudents})
	}
	return resp, nil
}

// GetPricing returns the effective policy of an academy. Academies without
// settings report the default per-student policy at price zero.
func (s *PricingService) GetPricing(ctx context.Context, actor *models.JWTClaims, academyID string) (*dto.PricingResponse, error) {
	if err := s.authorize(ctx, actor, academyID); err != nil {
		return nil, err
	}
	policy, err := s.pricing.FindByAcademy(ctx, academyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			def := models.DefaultPricingPolicy(academyID)
			return toPricingResponse(&def, false), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing")
	}
	return toPricingResponse(policy, true), nil
}

// UpdatePricing validates and stores the academy's policy.
func (s *PricingService) UpdatePricing(ctx context.Context, actor *models.JWTClaims, academyID string, req dto.UpdatePricingRequest) (*dto.PricingResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pricing payload")
	}
	if err := s.authorize(ctx, actor, academyID); err != nil {
		return nil, err
	}

	var previous *models.PricingPolicy
	if existing, err := s.pricing.FindByAcademy(ctx, academyID); err == nil {
		previous = existing
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pricing")
	}

	actorID := actor.UserID
	policy := &models.PricingPolicy{
		AcademyID:       academyID,
		BillingType:     req.BillingType,
		PricePerStudent: req.PricePerStudent,
		FlatRateAmount:  req.FlatRateAmount,
		UpdatedBy:       &actorID,
	}
	if err := s.pricing.Upsert(ctx, policy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save pricing")
	}

	s.logger.Info("pricing updated", zap.String("academy_id", academyID), zap.String("billing_type", string(policy.BillingType)), zap.String("actor_id", actorID))
	if s.audit != nil {
		entry := &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionPricingUpdate,
			Resource:   "franchise_settings",
			ResourceID: &policy.AcademyID,
		}
		if previous != nil {
			entry.OldValues, _ = json.Marshal(previous)
		}
		entry.NewValues, _ = json.Marshal(policy)
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record pricing audit log", zap.Error(err))
		}
	}
	if s.billing != nil {
		s.billing.InvalidateCache(ctx)
	}
	return toPricingResponse(policy, true), nil
}

func (s *PricingService) authorize(ctx context.Context, actor *models.JWTClaims, academyID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.CanManageAcademy(academyID) {
		return appErrors.Clone(appErrors.ErrForbidden, "academy not accessible")
	}
	if _, err := s.academies.FindByID(ctx, academyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "academy not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academy")
	}
	return nil
}

func toPricingResponse(policy *models.PricingPolicy, configured bool) *dto.PricingResponse {
	resp := &dto.PricingResponse{
		AcademyID:       policy.AcademyID,
		BillingType:     policy.BillingType,
		PricePerStudent: policy.PricePerStudent,
		FlatRateAmount:  policy.FlatRateAmount,
		Configured:      configured,
	}
	if configured && !policy.UpdatedAt.IsZero() {
		updated := policy.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
