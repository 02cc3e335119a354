package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/middleware"
	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

type billingStatsProvider interface {
	MonthlyStats(ctx context.Context, year, month int) (map[string]models.MonthlyBillingReport, bool, error)
}

// BillingHandler serves the monthly billing statistics.
type BillingHandler struct {
	billing billingStatsProvider
}

// NewBillingHandler constructs a billing handler.
func NewBillingHandler(billing billingStatsProvider) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// Stats godoc
// @Summary Monthly billing statistics
// @Description Per-academy billable student counts and costs for one calendar month. The body is a bare map keyed by academy id.
// @Tags Billing
// @Produce json
// @Param year query int true "Four digit year"
// @Param month query int true "Month 1-12"
// @Success 200 {object} map[string]models.MonthlyBillingReport
// @Failure 400 {object} response.PlainErrorBody
// @Failure 503 {object} response.PlainErrorBody
// @Router /admin/billing-stats [get]
func (h *BillingHandler) Stats(c *gin.Context) {
	year, err := parseIntQuery(c, "year")
	if err != nil {
		response.PlainError(c, err)
		return
	}
	month, err := parseIntQuery(c, "month")
	if err != nil {
		response.PlainError(c, err)
		return
	}

	reports, cached, err := h.billing.MonthlyStats(c.Request.Context(), year, month)
	if err != nil {
		response.PlainError(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.Plain(c, http.StatusOK, reports)
}

func parseIntQuery(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", name))
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be an integer", name))
	}
	return value, nil
}
