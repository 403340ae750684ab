package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/db"
)

// DefaultTokenTTL is how long confirmation and recovery links stay valid.
const DefaultTokenTTL = time.Hour

// UserStore persists local accounts and one-time tokens.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ConfirmEmail(ctx context.Context, id uuid.UUID) error
	CreateAuthToken(ctx context.Context, userID uuid.UUID, purpose db.TokenPurpose, tokenHash string, expiresAt time.Time) error
	ConsumeAuthToken(ctx context.Context, tokenHash string, purpose db.TokenPurpose) (uuid.UUID, error)
}

// Local is a Provider backed by Postgres, bcrypt and self-issued JWTs.
// There is no mail transport: confirmation and recovery links are logged.
type Local struct {
	store      UserStore
	passwords  *config.PasswordConfig
	tokens     *TokenService
	confirmURL string
	tokenTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewLocal builds a local provider. confirmURL is the absolute URL of the
// confirmation endpoint that emailed links point at.
func NewLocal(store UserStore, passwords *config.PasswordConfig, tokens *TokenService, confirmURL string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		store:      store,
		passwords:  passwords,
		tokens:     tokens,
		confirmURL: confirmURL,
		tokenTTL:   DefaultTokenTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// SignInWithPassword checks the credentials and issues a session token.
func (l *Local) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	u, err := l.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !l.passwords.VerifyPassword(password, u.PasswordHash) {
		return nil, ErrBadLogin
	}
	if !u.EmailConfirmed {
		return nil, ErrNotConfirmed
	}
	return l.issue(u)
}

// SignUp creates an unconfirmed account and sends a confirmation link.
func (l *Local) SignUp(ctx context.Context, email, password string) (*User, error) {
	if len([]rune(password)) < config.MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := l.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u, err := l.store.CreateUser(ctx, email, hash)
	if errors.Is(err, db.ErrEmailExists) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, err
	}
	if err := l.sendLink(ctx, u, db.PurposeConfirm, OTPSignup, ""); err != nil {
		return nil, err
	}
	return toUser(u), nil
}

// ResetPasswordForEmail sends a recovery link. Unknown addresses succeed silently.
func (l *Local) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	u, err := l.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		l.logger.Debug("recovery requested for unknown email")
		return nil
	}
	return l.sendLink(ctx, u, db.PurposeRecovery, OTPRecovery, redirectTo)
}

// UpdateUser changes the password of the session's user.
func (l *Local) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error) {
	claims, err := l.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	if attrs.Email != "" {
		return nil, &AuthError{Status: http.StatusUnprocessableEntity, Message: "Email change is not supported"}
	}
	if attrs.Password != "" {
		if len([]rune(attrs.Password)) < config.MinPasswordLength {
			return nil, ErrWeakPassword
		}
		hash, err := l.passwords.HashPassword(attrs.Password)
		if err != nil {
			return nil, err
		}
		if err := l.store.UpdatePassword(ctx, claims.UserID, hash); err != nil {
			return nil, err
		}
	}
	u, err := l.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnknownUser
	}
	return toUser(u), nil
}

// VerifyOTP redeems a link token. Signup and email confirmations mark the
// address verified; every successful redemption signs the user in.
func (l *Local) VerifyOTP(ctx context.Context, tokenHash string, otpType OTPType) (*Session, error) {
	var purpose db.TokenPurpose
	switch otpType {
	case OTPSignup, OTPEmail:
		purpose = db.PurposeConfirm
	case OTPRecovery:
		purpose = db.PurposeRecovery
	default:
		return nil, ErrUnsupportedOTP
	}

	userID, err := l.store.ConsumeAuthToken(ctx, digest(tokenHash), purpose)
	if errors.Is(err, db.ErrTokenNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	// A recovery link proves control of the address too.
	if err := l.store.ConfirmEmail(ctx, userID); err != nil {
		return nil, err
	}
	u, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnknownUser
	}
	return l.issue(u)
}

// GetSession validates a self-issued token and loads its user.
func (l *Local) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}
	claims, err := l.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	u, err := l.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrUnknownUser)
	}
	return &Session{
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        toUser(u),
	}, nil
}

func (l *Local) issue(u *db.User) (*Session, error) {
	token, expiresAt, err := l.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: expiresAt, User: toUser(u)}, nil
}

func (l *Local) sendLink(ctx context.Context, u *db.User, purpose db.TokenPurpose, otpType OTPType, redirectTo string) error {
	raw, err := randomToken()
	if err != nil {
		return err
	}
	if err := l.store.CreateAuthToken(ctx, u.ID, purpose, digest(raw), l.now().Add(l.tokenTTL)); err != nil {
		return err
	}
	l.logger.Info("identity link issued",
		slog.String("user_id", u.ID.String()),
		slog.String("type", string(otpType)),
		slog.String("link", l.link(raw, otpType, redirectTo)),
	)
	return nil
}

func (l *Local) link(raw string, otpType OTPType, redirectTo string) string {
	q := url.Values{}
	q.Set("token_hash", raw)
	q.Set("type", string(otpType))
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return l.confirmURL + "?" + q.Encode()
}

func toUser(u *db.User) *User {
	return &User{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt,
	}
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// digest is what the store keeps instead of the emailed token.
func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
