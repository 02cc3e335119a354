package dto

import "github.com/noah-isme/academy-billing-api/internal/models"

// BillingExportRequest captures POST /admin/billing-exports payload.
type BillingExportRequest struct {
	Year   int                 `json:"year" validate:"required,gte=1000,lte=9999"`
	Month  int                 `json:"month" validate:"required,gte=1,lte=12"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// BillingExportJobResponse is returned after enqueueing an export.
type BillingExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// BillingExportStatusResponse exposes job progress metadata.
type BillingExportStatusResponse struct {
	ID        string              `json:"id"`
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	Format    models.ExportFormat `json:"format"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
