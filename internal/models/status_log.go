package models

import "time"

// StatusChangeEvent is an immutable entry of the student_status_logs table.
type StatusChangeEvent struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	AcademyID string        `db:"academy_id" json:"academy_id"`
	NewStatus StudentStatus `db:"new_status" json:"new_status"`
	ChangedAt time.Time     `db:"changed_at" json:"changed_at"`
	ChangedBy *string       `db:"changed_by" json:"changed_by,omitempty"`
}
