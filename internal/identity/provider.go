// Package identity provides sign-in, sign-up and session lookup against an
// external identity service or a local user store.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Session is a signed-in user's access token.
type Session struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         *User     `json:"user"`
}

// UserAttributes are the fields UpdateUser can change. Empty fields are left alone.
type UserAttributes struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// OTPType identifies what a one-time token confirms.
type OTPType string

// OTP types accepted by VerifyOTP.
const (
	OTPSignup      OTPType = "signup"
	OTPEmail       OTPType = "email"
	OTPRecovery    OTPType = "recovery"
	OTPInvite      OTPType = "invite"
	OTPMagicLink   OTPType = "magiclink"
	OTPEmailChange OTPType = "email_change"
)

// Valid reports whether t is a known OTP type.
func (t OTPType) Valid() bool {
	switch t {
	case OTPSignup, OTPEmail, OTPRecovery, OTPInvite, OTPMagicLink, OTPEmailChange:
		return true
	}
	return false
}

// Provider is an identity backend.
type Provider interface {
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error)
	VerifyOTP(ctx context.Context, tokenHash string, otpType OTPType) (*Session, error)
}

// Common errors.
var (
	ErrUnavailable    = errors.New("Authentication service not available")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrInvalidOTP     = errors.New("Token has expired or is invalid")
	ErrNoSession      = errors.New("no active session")
	ErrEmailExists    = errors.New("User already registered")
	ErrBadLogin       = errors.New("Invalid login credentials")
	ErrNotConfirmed   = errors.New("Email not confirmed")
	ErrWeakPassword   = errors.New("Password should be at least 8 characters")
	ErrUnknownUser    = errors.New("user not found")
	ErrUnsupportedOTP = errors.New("unsupported confirmation type")
)

// AuthError is a rejection whose Message is safe to show to the user.
type AuthError struct {
	Status  int
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the text to show for err when it is a user-facing
// rejection, and false for internal failures.
func UserMessage(err error) (string, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message, true
	}
	for _, known := range []error{ErrBadLogin, ErrEmailExists, ErrNotConfirmed, ErrWeakPassword, ErrInvalidOTP, ErrUnsupportedOTP} {
		if errors.Is(err, known) {
			return known.Error(), true
		}
	}
	return "", false
}

// Optional holds a Provider that may be absent.
type Optional struct {
	provider Provider
}

// Some wraps an available provider.
func Some(p Provider) Optional {
	return Optional{provider: p}
}

// None is the absent provider.
func None() Optional {
	return Optional{}
}

// Get returns the provider and whether one is configured.
func (o Optional) Get() (Provider, bool) {
	return o.provider, o.provider != nil
}
