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

type studentStatusUpdater interface {
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.UpdateStudentStatusRequest) (*dto.StudentStatusResponse, error)
	History(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.StudentStatusHistoryResponse, error)
}

// StudentStatusHandler toggles student billing status.
type StudentStatusHandler struct {
	service studentStatusUpdater
}

// NewStudentStatusHandler constructs the handler.
func NewStudentStatusHandler(svc studentStatusUpdater) *StudentStatusHandler {
	return &StudentStatusHandler{service: svc}
}

// Update godoc
// @Summary Change a student's status
// @Description Suspends or reactivates a student and appends a status log entry. Unchanged status is a no-op.
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateStudentStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{id}/status [patch]
func (h *StudentStatusHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateStudentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// History godoc
// @Summary Student status history
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{id}/status-log [get]
func (h *StudentStatusHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	history, err := h.service.History(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, map[string]interface{}{"total": len(history.Events)})
}
