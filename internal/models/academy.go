package models

import "time"

// Academy is a tenant. The counters are maintained when a student's status is
// toggled and are not consulted by billing.
type Academy struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	ActiveStudents    int       `db:"active_students" json:"active_students"`
	SuspendedStudents int       `db:"suspended_students" json:"suspended_students"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
