package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the local identity store
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"` // Never serialize to JSON
	EmailConfirmed bool      `json:"email_confirmed" db:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TokenPurpose scopes a one-time token to the flow that issued it.
type TokenPurpose string

// Token purposes.
const (
	PurposeConfirm  TokenPurpose = "confirm"
	PurposeRecovery TokenPurpose = "recovery"
)
