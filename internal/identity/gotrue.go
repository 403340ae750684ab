package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/cover-letter/internal/config"
	gotrue "github.com/supabase-community/gotrue-go"
	gotypes "github.com/supabase-community/gotrue-go/types"
)

// DefaultTimeout bounds each call to the identity service.
const DefaultTimeout = 10 * time.Second

const supabaseAudience = "authenticated"

// GoTrue talks to a Supabase auth server through the gotrue client.
type GoTrue struct {
	api        gotrue.Client
	httpClient *http.Client
	siteURL    string
	jwtSecret  string
	now        func() time.Time
}

// GoTrueOption customizes a GoTrue client.
type GoTrueOption func(*GoTrue)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) GoTrueOption {
	return func(g *GoTrue) { g.httpClient = c }
}

// NewGoTrue returns a client for the project in cfg.
func NewGoTrue(cfg config.IdentityConfig, opts ...GoTrueOption) (*GoTrue, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("%w: supabase url and anon key are required", ErrUnavailable)
	}
	site := strings.TrimRight(cfg.SupabaseURL, "/")
	g := &GoTrue{
		api:        gotrue.New("", cfg.SupabaseAnonKey).WithCustomGoTrueURL(site + "/auth/v1"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		siteURL:    site,
		jwtSecret:  cfg.SupabaseJWTSecret,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// client scopes the API client to one call. The gotrue client has no context
// parameters, so ctx and any extra query values ride on the transport.
func (g *GoTrue) client(ctx context.Context, token string, query url.Values) gotrue.Client {
	hc := *g.httpClient
	hc.Transport = &callTransport{ctx: ctx, query: query, base: g.httpClient.Transport}
	c := g.api.WithClient(hc)
	if token != "" {
		c = c.WithToken(token)
	}
	return c
}

type callTransport struct {
	ctx   context.Context
	query url.Values
	base  http.RoundTripper
}

func (t *callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if len(t.query) > 0 {
		q := req.URL.Query()
		for k, vs := range t.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func fromGoTrueUser(u gotypes.User) *User {
	if u.ID == uuid.Nil {
		return nil
	}
	return &User{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		CreatedAt:      u.CreatedAt,
	}
}

func (g *GoTrue) toSession(s gotypes.Session) *Session {
	if s.AccessToken == "" {
		return nil
	}
	expires := g.now().Add(time.Duration(s.ExpiresIn) * time.Second)
	if s.ExpiresAt > 0 {
		expires = time.Unix(s.ExpiresAt, 0)
	}
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expires,
		User:         fromGoTrueUser(s.User),
	}
}

// SignInWithPassword exchanges credentials for a session.
func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := g.client(ctx, "", nil).SignInWithEmailPassword(email, password)
	if err != nil {
		if errors.Is(err, gotypes.ErrInvalidTokenRequest) {
			return nil, ErrBadLogin
		}
		return nil, translateError(err)
	}
	session := g.toSession(resp.Session)
	if session == nil {
		return nil, fmt.Errorf("sign in returned no session")
	}
	return session, nil
}

// SignUp registers a new account. The user must confirm the email before signing in
// unless the project auto-confirms.
func (g *GoTrue) SignUp(ctx context.Context, email, password string) (*User, error) {
	resp, err := g.client(ctx, "", nil).Signup(gotypes.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, translateError(err)
	}
	if u := fromGoTrueUser(resp.User); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("sign up returned no user")
}

// ResetPasswordForEmail asks the service to send a recovery email.
func (g *GoTrue) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var query url.Values
	if redirectTo != "" {
		query = url.Values{"redirect_to": {redirectTo}}
	}
	return translateError(g.client(ctx, "", query).Recover(gotypes.RecoverRequest{Email: email}))
}

// UpdateUser changes the attributes of the user owning accessToken.
func (g *GoTrue) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}
	req := gotypes.UpdateUserRequest{Email: attrs.Email}
	if attrs.Password != "" {
		password := attrs.Password
		req.Password = &password
	}
	resp, err := g.client(ctx, accessToken, nil).UpdateUser(req)
	if err != nil {
		return nil, translateError(err)
	}
	return fromGoTrueUser(resp.User), nil
}

// VerifyOTP redeems a token hash from a confirmation or recovery email.
func (g *GoTrue) VerifyOTP(ctx context.Context, tokenHash string, otpType OTPType) (*Session, error) {
	if !otpType.Valid() {
		return nil, ErrUnsupportedOTP
	}
	if tokenHash == "" {
		return nil, ErrInvalidOTP
	}
	kind := gotypes.VerificationType(otpType)
	if otpType == OTPEmail {
		// Email links confirm the address the same way signup links do.
		kind = gotypes.VerificationTypeSignup
	}
	resp, err := g.client(ctx, "", nil).Verify(gotypes.VerifyRequest{
		Type:       kind,
		Token:      tokenHash,
		RedirectTo: g.siteURL,
	})
	if err != nil {
		return nil, translateError(err)
	}
	if resp.Error != "" {
		msg := resp.ErrorDescription
		if msg == "" {
			msg = resp.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidOTP, msg)
	}
	if resp.AccessToken == "" {
		return nil, nil
	}

	session, err := g.GetSession(ctx, resp.AccessToken)
	if err != nil {
		return nil, err
	}
	session.RefreshToken = resp.RefreshToken
	session.ExpiresAt = g.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	return session, nil
}

// GetSession resolves an access token. With a JWT secret configured the token
// is verified locally; otherwise the service is asked for the user.
func (g *GoTrue) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}
	if g.jwtSecret != "" {
		return g.verifyLocally(accessToken)
	}

	resp, err := g.client(ctx, accessToken, nil).GetUser()
	if err != nil {
		err = translateError(err)
		var authErr *AuthError
		if errors.As(err, &authErr) && (authErr.Status == http.StatusUnauthorized || authErr.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidToken, authErr.Message)
		}
		return nil, err
	}
	user := fromGoTrueUser(resp.User)
	if user == nil {
		return nil, ErrInvalidToken
	}
	return &Session{AccessToken: accessToken, User: user}, nil
}

type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (g *GoTrue) verifyLocally(accessToken string) (*Session, error) {
	claims := &supabaseClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, hmacKey(g.jwtSecret),
		jwt.WithAudience(supabaseAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, describeJWTError(err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return &Session{
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        &User{ID: id, Email: claims.Email, EmailConfirmed: true},
	}, nil
}

// The gotrue client reports HTTP failures as "response status code N: body".
var statusError = regexp.MustCompile(`(?s)^response status code (\d+)(?:: (.*))?$`)

type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// translateError turns a gotrue client error into *AuthError when it carries
// an HTTP status.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	m := statusError.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	status, _ := strconv.Atoi(m[1])
	var body gotrueError
	_ = json.Unmarshal([]byte(m[2]), &body)
	msg := body.text()
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &AuthError{Status: status, Message: msg, Cause: err}
}
