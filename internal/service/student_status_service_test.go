package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/dto"
	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/repository"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type fakeStudents struct {
	byID map[string]models.Student
}

func (f *fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

type fakeStatusStore struct {
	students *fakeStudents
	applied  []repository.StatusChange
	err      error
}

func (f *fakeStatusStore) ApplyChange(ctx context.Context, change repository.StatusChange) (*repository.StatusChangeOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	student := f.students.byID[change.StudentID]
	outcome := &repository.StatusChangeOutcome{Student: student, PreviousStatus: student.Status}
	if student.Status == change.NewStatus {
		return outcome, nil
	}
	f.applied = append(f.applied, change)
	student.Status = change.NewStatus
	f.students.byID[change.StudentID] = student
	outcome.Student = student
	outcome.Event = &models.StatusChangeEvent{StudentID: student.ID, NewStatus: change.NewStatus, ChangedAt: change.At}
	return outcome, nil
}

func (f *fakeStatusStore) ListByStudent(ctx context.Context, studentID string) ([]models.StatusChangeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var events []models.StatusChangeEvent
	for i, change := range f.applied {
		if change.StudentID != studentID {
			continue
		}
		actor := change.ActorID
		events = append(events, models.StatusChangeEvent{ID: fmt.Sprintf("log-%d", i), StudentID: studentID, NewStatus: change.NewStatus, ChangedAt: change.At, ChangedBy: &actor})
	}
	return events, nil
}

type fakeAudit struct {
	logs []*models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateCache(ctx context.Context) { f.calls++ }

func newStatusFixture() (*StudentStatusService, *fakeStatusStore, *fakeAudit, *fakeInvalidator) {
	students := &fakeStudents{byID: map[string]models.Student{
		"s-1": {ID: "s-1", AcademyID: "acad-1", Status: models.StudentStatusActive},
		"s-2": {ID: "s-2", AcademyID: "acad-2", Status: models.StudentStatusActive},
	}}
	store := &fakeStatusStore{students: students}
	audit := &fakeAudit{}
	inv := &fakeInvalidator{}
	svc := NewStudentStatusService(students, store, audit, inv, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }
	return svc, store, audit, inv
}

func TestStudentStatusServiceSuspends(t *testing.T) {
	svc, store, audit, inv := newStatusFixture()
	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, AcademyID: "acad-1"}

	resp, err := svc.UpdateStatus(context.Background(), actor, "s-1", dto.UpdateStudentStatusRequest{Status: models.StudentStatusSuspended})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, models.StudentStatusActive, resp.PreviousStatus)
	assert.Equal(t, models.StudentStatusSuspended, resp.Status)
	require.Len(t, store.applied, 1)
	assert.Equal(t, "admin-1", store.applied[0].ActorID)
	assert.Equal(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), store.applied[0].At)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStatusChange, audit.logs[0].Action)
	assert.Equal(t, 1, inv.calls)
}

func TestStudentStatusServiceSameStatusIsNoop(t *testing.T) {
	svc, store, audit, inv := newStatusFixture()
	actor := &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}

	resp, err := svc.UpdateStatus(context.Background(), actor, "s-2", dto.UpdateStudentStatusRequest{Status: models.StudentStatusActive})
	require.NoError(t, err)
	assert.False(t, resp.Changed)
	assert.Nil(t, resp.ChangedAt)
	assert.Empty(t, store.applied)
	assert.Empty(t, audit.logs)
	assert.Zero(t, inv.calls)
}

func TestStudentStatusServiceRejectsOtherAcademy(t *testing.T) {
	svc, store, _, _ := newStatusFixture()
	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, AcademyID: "acad-1"}

	_, err := svc.UpdateStatus(context.Background(), actor, "s-2", dto.UpdateStudentStatusRequest{Status: models.StudentStatusSuspended})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, store.applied)
}

func TestStudentStatusServiceValidatesStatus(t *testing.T) {
	svc, _, _, _ := newStatusFixture()
	actor := &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}

	_, err := svc.UpdateStatus(context.Background(), actor, "s-1", dto.UpdateStudentStatusRequest{Status: "deleted"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestStudentStatusServiceNotFound(t *testing.T) {
	svc, _, _, _ := newStatusFixture()
	actor := &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}

	_, err := svc.UpdateStatus(context.Background(), actor, "missing", dto.UpdateStudentStatusRequest{Status: models.StudentStatusActive})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentStatusServiceStoreFailure(t *testing.T) {
	svc, store, _, inv := newStatusFixture()
	store.err = errors.New("deadlock detected")
	actor := &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}

	_, err := svc.UpdateStatus(context.Background(), actor, "s-1", dto.UpdateStudentStatusRequest{Status: models.StudentStatusSuspended})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Zero(t, inv.calls)
}

func TestStudentStatusServiceHistory(t *testing.T) {
	svc, _, _, _ := newStatusFixture()
	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, AcademyID: "acad-1"}

	_, err := svc.UpdateStatus(context.Background(), actor, "s-1", dto.UpdateStudentStatusRequest{Status: models.StudentStatusSuspended})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), actor, "s-1", dto.UpdateStudentStatusRequest{Status: models.StudentStatusActive})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), actor, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, history.Status)
	require.Len(t, history.Events, 2)
	assert.Equal(t, models.StudentStatusSuspended, history.Events[0].Status)
	require.NotNil(t, history.Events[1].ChangedBy)
	assert.Equal(t, "admin-1", *history.Events[1].ChangedBy)
}

func TestStudentStatusServiceHistoryScoped(t *testing.T) {
	svc, _, _, _ := newStatusFixture()
	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, AcademyID: "acad-1"}

	_, err := svc.History(context.Background(), actor, "s-2")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	_, err = svc.History(context.Background(), actor, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.History(context.Background(), nil, "s-1")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
