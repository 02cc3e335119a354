package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/pkg/database"
)

// StatusChange describes one requested status transition.
type StatusChange struct {
	StudentID string
	NewStatus models.StudentStatus
	ActorID   string
	At        time.Time
}

// StatusChangeOutcome reports what ApplyChange did.
type StatusChangeOutcome struct {
	Student        models.Student
	PreviousStatus models.StudentStatus
	Event          *models.StatusChangeEvent
}

// StatusLogRepository owns the append-only student_status_logs table.
type StatusLogRepository struct {
	db *sqlx.DB
}

// NewStatusLogRepository constructs the repository.
func NewStatusLogRepository(db *sqlx.DB) *StatusLogRepository {
	return &StatusLogRepository{db: db}
}

// statusLogRow mirrors a log row whose columns may be NULL. Blank fields end up
// as a malformed event the reconciler skips.
type statusLogRow struct {
	ID        string       `db:"id"`
	StudentID string       `db:"student_id"`
	AcademyID string       `db:"academy_id"`
	NewStatus string       `db:"new_status"`
	ChangedAt sql.NullTime `db:"changed_at"`
	ChangedBy *string      `db:"changed_by"`
}

func (row statusLogRow) toModel() models.StatusChangeEvent {
	event := models.StatusChangeEvent{
		ID:        row.ID,
		StudentID: row.StudentID,
		AcademyID: row.AcademyID,
		NewStatus: models.StudentStatus(row.NewStatus),
		ChangedBy: row.ChangedBy,
	}
	if row.ChangedAt.Valid {
		event.ChangedAt = row.ChangedAt.Time
	}
	return event
}

const statusLogColumns = `COALESCE(id::text, '') AS id, COALESCE(student_id::text, '') AS student_id,
        COALESCE(academy_id::text, '') AS academy_id, COALESCE(new_status::text, '') AS new_status, changed_at, changed_by`

// ListUpTo returns every status change recorded at or before end. Rows with a
// NULL changed_at are returned too so the caller can count them.
func (r *StatusLogRepository) ListUpTo(ctx context.Context, end time.Time) ([]models.StatusChangeEvent, error) {
	query := `SELECT ` + statusLogColumns + `
FROM student_status_logs WHERE changed_at <= $1 OR changed_at IS NULL ORDER BY changed_at ASC NULLS LAST, id ASC`
	var rows []statusLogRow
	if err := r.db.SelectContext(ctx, &rows, query, end); err != nil {
		return nil, fmt.Errorf("list status logs: %w", err)
	}
	return toEvents(rows), nil
}

// ListByStudent returns the log of one student, oldest first.
func (r *StatusLogRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StatusChangeEvent, error) {
	query := `SELECT ` + statusLogColumns + `
FROM student_status_logs WHERE student_id = $1 ORDER BY changed_at ASC NULLS LAST, id ASC`
	var rows []statusLogRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student status logs: %w", err)
	}
	return toEvents(rows), nil
}

func toEvents(rows []statusLogRow) []models.StatusChangeEvent {
	events := make([]models.StatusChangeEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel())
	}
	return events
}

// ApplyChange locks the student row, updates its status, appends the log
// entry and moves the academy counters in one transaction. Setting the
// current status again is a no-op and appends nothing.
func (r *StatusLogRepository) ApplyChange(ctx context.Context, change StatusChange) (*StatusChangeOutcome, error) {
	var outcome *StatusChangeOutcome
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const lockQuery = `SELECT id, COALESCE(academy_id, '') AS academy_id, COALESCE(full_name, '') AS full_name,
        COALESCE(username, '') AS username, COALESCE(status, 'active') AS status, created_at
FROM users WHERE id = $1 AND role = $2 FOR UPDATE`
		var student models.Student
		if err := tx.GetContext(ctx, &student, lockQuery, change.StudentID, models.RoleStudent); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock student: %w", err)
		}

		outcome = &StatusChangeOutcome{Student: student, PreviousStatus: student.Status}
		if student.Status == change.NewStatus {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`, change.NewStatus, change.At, student.ID); err != nil {
			return fmt.Errorf("update student status: %w", err)
		}

		event := &models.StatusChangeEvent{
			ID:        uuid.NewString(),
			StudentID: student.ID,
			AcademyID: student.AcademyID,
			NewStatus: change.NewStatus,
			ChangedAt: change.At,
		}
		if change.ActorID != "" {
			actor := change.ActorID
			event.ChangedBy = &actor
		}
		const insert = `INSERT INTO student_status_logs (id, student_id, academy_id, new_status, changed_at, changed_by)
VALUES (:id, :student_id, :academy_id, :new_status, :changed_at, :changed_by)`
		if _, err := tx.NamedExecContext(ctx, insert, event); err != nil {
			return fmt.Errorf("append status log: %w", err)
		}

		if student.AcademyID != "" {
			activeDelta, suspendedDelta := counterDeltas(change.NewStatus)
			const counters = `UPDATE academies SET active_students = GREATEST(active_students + $1, 0),
        suspended_students = GREATEST(suspended_students + $2, 0), updated_at = $3 WHERE id = $4`
			if _, err := tx.ExecContext(ctx, counters, activeDelta, suspendedDelta, change.At, student.AcademyID); err != nil {
				return fmt.Errorf("adjust academy counters: %w", err)
			}
		}

		student.Status = change.NewStatus
		outcome.Student = student
		outcome.Event = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func counterDeltas(newStatus models.StudentStatus) (active, suspended int) {
	if newStatus == models.StudentStatusActive {
		return 1, -1
	}
	return -1, 1
}
