package models

import "time"

// UserRole determines which API surfaces an account can reach.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleRegistrar UserRole = "registrar"
	RoleExamHead  UserRole = "examhead"
	RoleStudent   UserRole = "student"
)

// ValidRole reports whether r is a known role.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleRegistrar, RoleExamHead, RoleStudent:
		return true
	}
	return false
}

// User is an authenticated account. Students get one keyed to their USN.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	StudentID    *string   `db:"student_id" json:"studentId,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
