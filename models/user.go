package models

import "time"

// Role names a closed, extensible set of account roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Roles lists every role the system accepts, most privileged first.
var Roles = []string{RoleAdmin, RoleEditor, RoleViewer}

// ValidRole reports whether role belongs to Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is a principal: an account that can log in to the admin backend.
// It maps to the `users` table in SQLite. Users are never hard-deleted;
// clearing IsActive is the removal path.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Avatar       string     `db:"avatar" json:"avatar,omitempty"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}
