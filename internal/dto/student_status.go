package dto

import (
	"time"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// UpdateStudentStatusRequest is the PATCH /admin/students/:id/status payload.
type UpdateStudentStatusRequest struct {
	Status models.StudentStatus `json:"status" validate:"required,oneof=active suspended"`
}

// StudentStatusResponse reports the outcome of a status toggle.
type StudentStatusResponse struct {
	StudentID      string               `json:"studentId"`
	AcademyID      string               `json:"academyId"`
	PreviousStatus models.StudentStatus `json:"previousStatus"`
	Status         models.StudentStatus `json:"status"`
	Changed        bool                 `json:"changed"`
	ChangedAt      *time.Time           `json:"changedAt,omitempty"`
}

// StatusLogEntry is one row of a student's status history.
type StatusLogEntry struct {
	ID        string               `json:"id"`
	Status    models.StudentStatus `json:"status"`
	ChangedAt time.Time            `json:"changedAt"`
	ChangedBy *string              `json:"changedBy,omitempty"`
}

// StudentStatusHistoryResponse lists the status log of one student.
type StudentStatusHistoryResponse struct {
	StudentID string               `json:"studentId"`
	AcademyID string               `json:"academyId"`
	Status    models.StudentStatus `json:"status"`
	Events    []StatusLogEntry     `json:"events"`
}
