package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/cover-letter/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testProvider accepts the tokens in validTokens and fails every other call.
type testProvider struct {
	validTokens map[string]uuid.UUID
}

func newTestProvider() *testProvider {
	return &testProvider{validTokens: make(map[string]uuid.UUID)}
}

func (p *testProvider) GetSession(_ context.Context, token string) (*identity.Session, error) {
	id, ok := p.validTokens[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Session{AccessToken: token, User: &identity.User{ID: id, Email: "user@example.com"}}, nil
}

func (p *testProvider) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	return nil, errors.New("not implemented")
}

func (p *testProvider) SignUp(context.Context, string, string) (*identity.User, error) {
	return nil, errors.New("not implemented")
}

func (p *testProvider) ResetPasswordForEmail(context.Context, string, string) error {
	return errors.New("not implemented")
}

func (p *testProvider) UpdateUser(context.Context, string, identity.UserAttributes) (*identity.User, error) {
	return nil, errors.New("not implemented")
}

func (p *testProvider) VerifyOTP(context.Context, string, identity.OTPType) (*identity.Session, error) {
	return nil, errors.New("not implemented")
}

func protectedHandler(t *testing.T, wantID *uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserID(r)
		require.NoError(t, err)
		if wantID != nil {
			assert.Equal(t, *wantID, id)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSession(t *testing.T) {
	provider := newTestProvider()
	userID := uuid.New()
	provider.validTokens["good-token"] = userID

	tests := []struct {
		name       string
		provider   identity.Optional
		setup      func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "cookie",
			provider:   identity.Some(provider),
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "good-token"}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer header",
			provider:   identity.Some(provider),
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "bearer good-token") },
			wantStatus: http.StatusOK,
		},
		{
			name:       "no token",
			provider:   identity.Some(provider),
			setup:      func(*http.Request) {},
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "invalid token",
			provider:   identity.Some(provider),
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "stale"}) },
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "malformed header",
			provider:   identity.Some(provider),
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Token good-token") },
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "no provider",
			provider:   identity.None(),
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "good-token"}) },
			wantStatus: http.StatusSeeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireSession(tt.provider, "session")(protectedHandler(t, &userID))
			req := httptest.NewRequest(http.MethodGet, "/app", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, LoginPath, rec.Header().Get("Location"))
			}
		})
	}
}

func TestTokenFromRequest_CookieWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-cookie", TokenFromRequest(req, "sid"))
	assert.Equal(t, "from-header", TokenFromRequest(req, "other"))
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)

	_, ok := SessionFromContext(WithSession(context.Background(), nil))
	assert.False(t, ok)
}
