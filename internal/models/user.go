package models

import "time"

// UserRole names the application roles carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// User represents an application account stored in the users table.
// Students own exactly one UserProfile row keyed by their user id.
type User struct {
	ID                   int64      `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	Email                string     `db:"email" json:"email"`
	RoleID               int64      `db:"role_id" json:"roleId"`
	IsActive             bool       `db:"is_active" json:"systemAccess"`
	ReporterID           *int64     `db:"reporter_id" json:"reporterId,omitempty"`
	LastLogin            *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	StatusLastReviewedAt *time.Time `db:"status_last_reviewed_dt" json:"statusLastReviewedDt,omitempty"`
	StatusLastReviewerID *int64     `db:"status_last_reviewer_id" json:"statusLastReviewerId,omitempty"`
	CreatedAt            time.Time  `db:"created_dt" json:"createdDt"`
	UpdatedAt            *time.Time `db:"updated_dt" json:"updatedDt,omitempty"`
}
