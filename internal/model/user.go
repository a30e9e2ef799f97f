package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the system-wide role of a user. ADMIN bypasses per-document
// permission checks entirely; USER is subject to ownership and grants.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User represents an account that can own documents and hold grants.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
