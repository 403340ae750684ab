package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/identity"
	"github.com/jonathan/cover-letter/internal/observability"
	"github.com/jonathan/cover-letter/internal/server/middleware"
	"github.com/jonathan/cover-letter/internal/types"
)

// Post-action destinations.
const (
	appPath             = "/app"
	passwordUpdatedPath = "/auth/login?message=password-updated"
)

// AuthHandler handles the form-based sign-in, sign-up and recovery flows.
type AuthHandler struct {
	provider     identity.Optional
	cookieName   string
	cookieSecure bool
	redirectURL  string
	sink         *observability.Sink
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(provider identity.Optional, cfg config.IdentityConfig, cookieSecure bool, sink *observability.Sink) *AuthHandler {
	cookieName := cfg.SessionCookieName
	if cookieName == "" {
		cookieName = "session"
	}
	return &AuthHandler{
		provider:     provider,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		redirectURL:  cfg.PasswordRedirectURL,
		sink:         sink,
	}
}

// authFailure is the JSON body of a rejected auth form.
type authFailure struct {
	Error string `json:"error"`
	Email string `json:"email,omitempty"`
}

// authMessage is the JSON body of an auth step that does not redirect.
type authMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := types.LoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Remember: r.PostFormValue("remember-me") == "on",
	}
	if err := form.Validate(); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error(), form.Email)
		return
	}

	p, ok := h.provider.Get()
	if !ok {
		h.fail(w, http.StatusServiceUnavailable, MsgAuthUnavailable, form.Email)
		return
	}

	session, err := p.SignInWithPassword(r.Context(), form.Email, form.Password)
	if err != nil {
		h.providerError(w, err, form.Email, "login")
		return
	}

	h.setSessionCookie(w, session, form.Remember)
	http.Redirect(w, r, appPath, http.StatusSeeOther)
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form := types.SignupForm{
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm-password"),
	}
	if err := form.Validate(); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error(), form.Email)
		return
	}

	p, ok := h.provider.Get()
	if !ok {
		h.fail(w, http.StatusServiceUnavailable, MsgAuthUnavailable, form.Email)
		return
	}

	if _, err := p.SignUp(r.Context(), form.Email, form.Password); err != nil {
		h.providerError(w, err, form.Email, "signup")
		return
	}

	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// ForgotPassword handles POST /auth/forgot-password. The response is the
// same whether or not the address has an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	form := types.ForgotPasswordForm{Email: strings.TrimSpace(r.PostFormValue("email"))}
	if err := form.Validate(); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error(), form.Email)
		return
	}

	p, ok := h.provider.Get()
	if !ok {
		h.message(w, MsgDemoResetEmail)
		return
	}

	if err := p.ResetPasswordForEmail(r.Context(), form.Email, h.resetRedirect(r)); err != nil {
		h.providerError(w, err, form.Email, "forgot-password")
		return
	}
	h.message(w, MsgResetEmailSent)
}

// ResetPassword handles POST /auth/reset-password for a user signed in
// through a recovery link.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	form := types.ResetPasswordForm{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm-password"),
	}
	if err := form.Validate(); err != nil {
		h.fail(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	p, ok := h.provider.Get()
	if !ok {
		h.message(w, MsgDemoPasswordReset)
		return
	}

	token := middleware.TokenFromRequest(r, h.cookieName)
	if token == "" {
		h.fail(w, http.StatusUnauthorized, MsgSessionMissing, "")
		return
	}

	user, err := p.UpdateUser(r.Context(), token, identity.UserAttributes{Password: form.Password})
	if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrNoSession) {
		h.fail(w, http.StatusUnauthorized, MsgSessionMissing, "")
		return
	}
	if err != nil {
		h.providerError(w, err, "", "reset-password")
		return
	}
	if user == nil {
		h.fail(w, http.StatusInternalServerError, MsgPasswordUpdate, "")
		return
	}

	http.Redirect(w, r, passwordUpdatedPath, http.StatusSeeOther)
}

// Confirm handles GET /auth/confirm from an emailed link.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenHash := q.Get("token_hash")
	otpType := identity.OTPType(q.Get("type"))
	if tokenHash == "" || otpType == "" {
		h.fail(w, http.StatusBadRequest, MsgInvalidConfirm, "")
		return
	}

	p, ok := h.provider.Get()
	if !ok {
		h.fail(w, http.StatusServiceUnavailable, MsgAuthUnavailable, "")
		return
	}

	session, err := p.VerifyOTP(r.Context(), tokenHash, otpType)
	if err != nil {
		h.providerError(w, err, "", "confirm")
		return
	}
	if session == nil || session.AccessToken == "" {
		h.fail(w, http.StatusBadRequest, MsgConfirmFailed, "")
		return
	}

	h.setSessionCookie(w, session, false)
	http.Redirect(w, r, safeRedirect(q.Get("redirect_to")), http.StatusSeeOther)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// providerError reports a provider rejection with its own message and hides
// everything else behind a generic 500.
func (h *AuthHandler) providerError(w http.ResponseWriter, err error, email, action string) {
	if msg, ok := identity.UserMessage(err); ok {
		h.fail(w, http.StatusBadRequest, msg, email)
		return
	}
	h.sink.LogError(err, "auth "+action)
	h.fail(w, http.StatusInternalServerError, MsgUnexpected, "")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *identity.Session, remember bool) {
	cookie := &http.Cookie{
		Name:     h.cookieName,
		Value:    session.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember && !session.ExpiresAt.IsZero() {
		cookie.Expires = session.ExpiresAt
		cookie.MaxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	http.SetCookie(w, cookie)
}

// resetRedirect is where the recovery email sends the user: the configured
// URL, or this request's URL with forgot-password swapped for reset-password.
func (h *AuthHandler) resetRedirect(r *http.Request) string {
	if h.redirectURL != "" {
		return h.redirectURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	u := url.URL{
		Scheme: scheme,
		Host:   r.Host,
		Path:   strings.Replace(r.URL.Path, "/forgot-password", "/reset-password", 1),
	}
	return u.String()
}

// safeRedirect keeps post-confirmation redirects on this site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return appPath
	}
	return target
}

func (h *AuthHandler) fail(w http.ResponseWriter, status int, msg, email string) {
	writeJSON(w, status, authFailure{Error: msg, Email: email})
}

func (h *AuthHandler) message(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, authMessage{Success: true, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
