package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type storedToken struct {
	userID    uuid.UUID
	purpose   db.TokenPurpose
	expiresAt time.Time
}

type fakeStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*db.User
	tokens map[string]storedToken
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uuid.UUID]*db.User{}, tokens: map[string]storedToken{}}
}

func (s *fakeStore) CreateUser(_ context.Context, email, hash string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return nil, db.ErrEmailExists
		}
	}
	u := &db.User{ID: uuid.New(), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, s.err
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = hash
	return nil
}

func (s *fakeStore) ConfirmEmail(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.EmailConfirmed = true
	return nil
}

func (s *fakeStore) CreateAuthToken(_ context.Context, userID uuid.UUID, purpose db.TokenPurpose, hash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[hash] = storedToken{userID: userID, purpose: purpose, expiresAt: expiresAt}
	return nil
}

func (s *fakeStore) ConsumeAuthToken(_ context.Context, hash string, purpose db.TokenPurpose) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[hash]
	if !ok || tok.purpose != purpose || !tok.expiresAt.After(time.Now()) {
		return uuid.Nil, db.ErrTokenNotFound
	}
	delete(s.tokens, hash)
	return tok.userID, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// lastLink returns the query of the most recent link the provider logged.
func (b *syncBuffer) lastLink(t *testing.T) url.Values {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var link string
	for _, line := range bytes.Split(bytes.TrimSpace(b.buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if l, ok := entry["link"].(string); ok {
			link = l
		}
	}
	require.NotEmpty(t, link, "no link logged")
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query()
}

func newTestLocal(t *testing.T) (*Local, *fakeStore, *syncBuffer) {
	t.Helper()
	store := newFakeStore()
	logs := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	passwords := &config.PasswordConfig{BcryptCost: bcrypt.MinCost}
	l := NewLocal(store, passwords, testTokenService(), "https://cover.me/auth/confirm", logger)
	return l, store, logs
}

func TestLocal_SignUpConfirmSignIn(t *testing.T) {
	l, store, logs := newTestLocal(t)
	ctx := context.Background()

	user, err := l.SignUp(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	assert.False(t, user.EmailConfirmed)
	assert.NotEqual(t, "password1", store.users[user.ID].PasswordHash)

	// Unconfirmed accounts cannot sign in
	_, err = l.SignInWithPassword(ctx, "a@b.com", "password1")
	assert.ErrorIs(t, err, ErrNotConfirmed)

	link := logs.lastLink(t)
	assert.Equal(t, "signup", link.Get("type"))
	raw := link.Get("token_hash")
	require.NotEmpty(t, raw)
	_, stored := store.tokens[raw]
	assert.False(t, stored, "raw token must not be stored")

	session, err := l.VerifyOTP(ctx, raw, OTPSignup)
	require.NoError(t, err)
	assert.True(t, session.User.EmailConfirmed)
	assert.NotEmpty(t, session.AccessToken)

	// Single use
	_, err = l.VerifyOTP(ctx, raw, OTPSignup)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	session, err = l.SignInWithPassword(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	got, err := l.GetSession(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.User.Email)
}

func TestLocal_SignUpErrors(t *testing.T) {
	l, store, _ := newTestLocal(t)
	ctx := context.Background()

	_, err := l.SignUp(ctx, "a@b.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = l.SignUp(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	_, err = l.SignUp(ctx, "a@b.com", "password2")
	assert.ErrorIs(t, err, ErrEmailExists)

	store.err = errors.New("db down")
	_, err = l.SignUp(ctx, "c@d.com", "password1")
	require.Error(t, err)
	_, visible := UserMessage(err)
	assert.False(t, visible)
}

func TestLocal_SignInRejectsBadCredentials(t *testing.T) {
	l, _, logs := newTestLocal(t)
	ctx := context.Background()

	_, err := l.SignUp(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	_, err = l.VerifyOTP(ctx, logs.lastLink(t).Get("token_hash"), OTPEmail)
	require.NoError(t, err)

	_, err = l.SignInWithPassword(ctx, "a@b.com", "wrongpass")
	assert.ErrorIs(t, err, ErrBadLogin)
	_, err = l.SignInWithPassword(ctx, "nobody@b.com", "password1")
	assert.ErrorIs(t, err, ErrBadLogin)
}

func TestLocal_PasswordRecovery(t *testing.T) {
	l, _, logs := newTestLocal(t)
	ctx := context.Background()

	_, err := l.SignUp(ctx, "a@b.com", "password1")
	require.NoError(t, err)

	require.NoError(t, l.ResetPasswordForEmail(ctx, "a@b.com", "https://cover.me/auth/reset-password"))
	link := logs.lastLink(t)
	assert.Equal(t, "recovery", link.Get("type"))
	assert.Equal(t, "https://cover.me/auth/reset-password", link.Get("redirect_to"))

	// A recovery token cannot confirm a signup
	_, err = l.VerifyOTP(ctx, link.Get("token_hash"), OTPSignup)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	session, err := l.VerifyOTP(ctx, link.Get("token_hash"), OTPRecovery)
	require.NoError(t, err)

	user, err := l.UpdateUser(ctx, session.AccessToken, UserAttributes{Password: "brandnew1"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	_, err = l.SignInWithPassword(ctx, "a@b.com", "password1")
	assert.ErrorIs(t, err, ErrBadLogin)
	_, err = l.SignInWithPassword(ctx, "a@b.com", "brandnew1")
	assert.NoError(t, err)
}

func TestLocal_ResetUnknownEmailIsSilent(t *testing.T) {
	l, store, _ := newTestLocal(t)
	require.NoError(t, l.ResetPasswordForEmail(context.Background(), "ghost@b.com", ""))
	assert.Empty(t, store.tokens)
}

func TestLocal_UpdateUserErrors(t *testing.T) {
	l, _, logs := newTestLocal(t)
	ctx := context.Background()

	_, err := l.UpdateUser(ctx, "garbage", UserAttributes{Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = l.SignUp(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	session, err := l.VerifyOTP(ctx, logs.lastLink(t).Get("token_hash"), OTPSignup)
	require.NoError(t, err)

	_, err = l.UpdateUser(ctx, session.AccessToken, UserAttributes{Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = l.UpdateUser(ctx, session.AccessToken, UserAttributes{Email: "new@b.com"})
	msg, ok := UserMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Email change is not supported", msg)
}

func TestLocal_VerifyOTPUnsupported(t *testing.T) {
	l, _, _ := newTestLocal(t)
	_, err := l.VerifyOTP(context.Background(), "x", OTPMagicLink)
	assert.ErrorIs(t, err, ErrUnsupportedOTP)
}

func TestLocal_GetSession(t *testing.T) {
	l, _, _ := newTestLocal(t)
	ctx := context.Background()

	_, err := l.GetSession(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	// Valid signature but the user no longer exists
	token, _, err := l.tokens.GenerateToken(uuid.New(), "gone@b.com")
	require.NoError(t, err)
	_, err = l.GetSession(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
