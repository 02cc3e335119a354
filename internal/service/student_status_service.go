package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/dto"
	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/repository"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type statusChangeStore interface {
	ApplyChange(ctx context.Context, change repository.StatusChange) (*repository.StatusChangeOutcome, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.StatusChangeEvent, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type billingCacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// StudentStatusService toggles students between active and suspended.
type StudentStatusService struct {
	students  studentFinder
	store     statusChangeStore
	audit     auditWriter
	billing   billingCacheInvalidator
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentStatusService constructs the service.
func NewStudentStatusService(students studentFinder, store statusChangeStore, audit auditWriter, billing billingCacheInvalidator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *StudentStatusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentStatusService{
		students:  students,
		store:     store,
		audit:     audit,
		billing:   billing,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// UpdateStatus records a status change for a student. Admins may only act on
// students of their own academy. Requesting the current status changes nothing.
func (s *StudentStatusService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.UpdateStudentStatusRequest) (*dto.StudentStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be active or suspended")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !actor.CanManageAcademy(student.AcademyID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another academy")
	}

	outcome, err := s.store.ApplyChange(ctx, repository.StatusChange{
		StudentID: studentID,
		NewStatus: req.Status,
		ActorID:   actor.UserID,
		At:        s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}

	resp := &dto.StudentStatusResponse{
		StudentID:      outcome.Student.ID,
		AcademyID:      outcome.Student.AcademyID,
		PreviousStatus: outcome.PreviousStatus,
		Status:         outcome.Student.Status,
	}
	if outcome.Event == nil {
		return resp, nil
	}

	resp.Changed = true
	changedAt := outcome.Event.ChangedAt
	resp.ChangedAt = &changedAt
	s.metrics.RecordStatusChange(string(req.Status))
	s.logger.Info("student status changed",
		zap.String("student_id", studentID),
		zap.String("academy_id", outcome.Student.AcademyID),
		zap.String("from", string(outcome.PreviousStatus)),
		zap.String("to", string(req.Status)),
		zap.String("actor_id", actor.UserID),
	)

	if s.audit != nil {
		actorID := actor.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionStatusChange,
			Resource:   "students",
			ResourceID: &resp.StudentID,
			OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, outcome.PreviousStatus)),
			NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, req.Status)),
		}); err != nil {
			s.logger.Warn("failed to record status change audit log", zap.Error(err))
		}
	}
	if s.billing != nil {
		s.billing.InvalidateCache(ctx)
	}
	return resp, nil
}

// History returns the status log of a student, oldest first.
func (s *StudentStatusService) History(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.StudentStatusHistoryResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !actor.CanManageAcademy(student.AcademyID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another academy")
	}

	events, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status log")
	}
	resp := &dto.StudentStatusHistoryResponse{
		StudentID: student.ID,
		AcademyID: student.AcademyID,
		Status:    student.Status,
		Events:    make([]dto.StatusLogEntry, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, dto.StatusLogEntry{ID: e.ID, Status: e.NewStatus, ChangedAt: e.ChangedAt, ChangedBy: e.ChangedBy})
	}
	return resp, nil
}
