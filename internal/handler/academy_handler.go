package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/dto"
	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

type academyPricingService interface {
	ListAcademies(ctx context.Context) ([]dto.AcademyResponse, error)
	GetPricing(ctx context.Context, actor *models.JWTClaims, academyID string) (*dto.PricingResponse, error)
	UpdatePricing(ctx context.Context, actor *models.JWTClaims, academyID string, req dto.UpdatePricingRequest) (*dto.PricingResponse, error)
}

// AcademyHandler exposes academies and their pricing policy.
type AcademyHandler struct {
	service academyPricingService
}

// NewAcademyHandler constructs the handler.
func NewAcademyHandler(svc academyPricingService) *AcademyHandler {
	return &AcademyHandler{service: svc}
}

// List godoc
// @Summary List academies
// @Tags Academies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/academies [get]
func (h *AcademyHandler) List(c *gin.Context) {
	academies, err := h.service.ListAcademies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, academies, map[string]interface{}{"total": len(academies)})
}

// GetPricing godoc
// @Summary Get academy pricing
// @Description Returns the effective pricing policy. Academies without settings report the per-student default with configured=false.
// @Tags Academies
// @Produce json
// @Param id path string true "Academy ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/academies/{id}/pricing [get]
func (h *AcademyHandler) GetPricing(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	pricing, err := h.service.GetPricing(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pricing)
}

// UpdatePricing godoc
// @Summary Update academy pricing
// @Tags Academies
// @Accept json
// @Produce json
// @Param id path string true "Academy ID"
// @Param payload body dto.UpdatePricingRequest true "Pricing policy"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/academies/{id}/pricing [put]
func (h *AcademyHandler) UpdatePricing(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pricing, err := h.service.UpdatePricing(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pricing)
}
