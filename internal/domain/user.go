package domain

import (
	"errors"
	"time"
)

// Credentials are the login details stored for a registered user.
type Credentials struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin can read the administrative reports
	RoleAdmin Role = "admin"

	// RoleUser operates on its own wallet only
	RoleUser Role = "user"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// CanViewReports checks if the role can read administrative reports
func (r Role) CanViewReports() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInsufficientRole   = errors.New("insufficient role for this operation")
)
