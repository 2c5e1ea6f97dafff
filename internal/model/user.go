package model

import "time"

// Roles a user can hold. New accounts are RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User mirrors a row of the `users` table.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email, unique and matched exactly
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }
