package models

import "time"

// Role represents the role attached to an authentication account.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
	RoleGeneral Role = "GENERAL"
)

// TeacherEligible reports whether the role may participate in teacher
// linkage. An absent role is treated permissively as teacher-eligible.
func (r Role) TeacherEligible() bool {
	return r == RoleTeacher || r == ""
}

// AccountRecord is a login-capable identity with a role. LinkedTeacher is
// derived at read time from the directory side and never written to the
// account store itself.
type AccountRecord struct {
	ID                 string     `db:"id" json:"id"`
	Username           string     `db:"username" json:"username"`
	Email              string     `db:"email" json:"email"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	Role               Role       `db:"role" json:"role"`
	Active             bool       `db:"active" json:"is_active"`
	MustChangePassword bool       `db:"must_change_password" json:"must_change_password"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	LinkedTeacher      LinkMarker `db:"linked_teacher_id" json:"linked_teacher_id"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// AccountFilter captures filtering criteria for listing accounts.
type AccountFilter struct {
	Role      *Role
	Active    *bool
	Linked    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
