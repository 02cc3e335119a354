package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleTeacher    UserRole = "teacher"
	RoleStudent    UserRole = "student"
)

// User represents an application account stored in the users table.
type User struct {
	ID           string        `db:"id" json:"id"`
	Email        string        `db:"email" json:"email"`
	Username     string        `db:"username" json:"username"`
	FullName     string        `db:"full_name" json:"full_name"`
	PasswordHash string        `db:"password_hash" json:"-"`
	Role         UserRole      `db:"role" json:"role"`
	AcademyID    string        `db:"academy_id" json:"academy_id"`
	Status       StudentStatus `db:"status" json:"status"`
	CreatedAt    *time.Time    `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}
