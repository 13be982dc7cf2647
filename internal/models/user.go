package models

import "time"

// UserRole represents the closed set of roles known to the platform.
type UserRole string

const (
	RoleSystemAdmin      UserRole = "system_admin"
	RoleAssistantManager UserRole = "assistant_manager"
	RoleAdminSupervisor  UserRole = "admin_supervisor"
	RoleDepartmentHead   UserRole = "department_head"
	RoleTeacher          UserRole = "teacher"
	RoleParent           UserRole = "parent"
)

// Valid reports whether the role belongs to the closed set.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleAssistantManager, RoleAdminSupervisor,
		RoleDepartmentHead, RoleTeacher, RoleParent:
		return true
	}
	return false
}

// IsManagement covers the roles with override authority over swap requests.
func (r UserRole) IsManagement() bool {
	return r == RoleSystemAdmin || r == RoleAssistantManager
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Department groups teachers under at most one head.
type Department struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	HeadUserID *string `db:"head_user_id" json:"head_user_id,omitempty"`
}
