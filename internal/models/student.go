package models

import "time"

// StudentStatus is the billing-relevant status of a student account.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusSuspended StudentStatus = "suspended"
)

// Valid reports whether the status is one of the known values.
func (s StudentStatus) Valid() bool {
	return s == StudentStatusActive || s == StudentStatusSuspended
}

// Student is a roster entry as consumed by billing. CreatedAt is nil when the
// stored row carries no creation timestamp.
type Student struct {
	ID        string        `db:"id" json:"id"`
	AcademyID string        `db:"academy_id" json:"academy_id"`
	Name      string        `db:"full_name" json:"name"`
	Username  string        `db:"username" json:"username"`
	Status    StudentStatus `db:"status" json:"status"`
	CreatedAt *time.Time    `db:"created_at" json:"created_at,omitempty"`
}
