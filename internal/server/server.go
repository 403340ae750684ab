package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/identity"
	"github.com/jonathan/cover-letter/internal/letters"
	"github.com/jonathan/cover-letter/internal/observability"
	"github.com/jonathan/cover-letter/internal/server/middleware"
	"github.com/jonathan/cover-letter/internal/server/ratelimit"
)

const shutdownTimeout = 30 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server is built from.
type Deps struct {
	Server    config.ServerConfig
	Identity  config.IdentityConfig
	Limiter   *ratelimit.Limiter
	Sink      *observability.Sink
	Generator *letters.Generator
	Auth      identity.Optional
	Database  Pinger // nil when no database is configured
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	limiter    *ratelimit.Limiter
	sink       *observability.Sink
	generator  *letters.Generator
	database   Pinger
	auth       *AuthHandler
}

// New creates a new server instance
func New(deps Deps) (*Server, error) {
	if deps.Limiter == nil || deps.Sink == nil || deps.Generator == nil {
		return nil, errors.New("server requires a limiter, sink and generator")
	}

	s := &Server{
		limiter:   deps.Limiter,
		sink:      deps.Sink,
		generator: deps.Generator,
		database:  deps.Database,
	}
	s.auth = NewAuthHandler(deps.Auth, deps.Identity, deps.Server.CookieSecure, deps.Sink)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.withRecover)
	r.Use(s.withLogging)
	r.Use(middleware.SitePassword(deps.Server.SitePassword))
	r.Use(s.withCORS)
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)
	r.Get("/api/metrics", s.handleMetrics)
	r.Post(ratelimit.GenerateLetterPath, s.handleGenerateLetter)
	r.Post("/api/feedback", s.handleFeedback)
	r.Post("/api/resume/extract", s.handleExtractResume)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.auth.Login)
		r.Post("/signup", s.auth.Signup)
		r.Post("/forgot-password", s.auth.ForgotPassword)
		r.Post("/reset-password", s.auth.ResetPassword)
		r.Post("/logout", s.auth.Logout)
		r.Get("/confirm", s.auth.Confirm)
	})

	r.Route("/app", func(r chi.Router) {
		r.Use(middleware.RequireSession(deps.Auth, deps.Identity.SessionCookieName))
		r.Get("/", s.handleSession)
		r.Get("/session", s.handleSession)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", deps.Server.Port),
		Handler:      r,
		ReadTimeout:  deps.Server.ReadTimeout,
		WriteTimeout: deps.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.sink.Logger().Info("server starting", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.sink.Logger().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.sink.Logger().Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies the per-endpoint limits. The generate endpoint checks
// its own limit so the decision is part of its logged lifecycle.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == ratelimit.GenerateLetterPath {
			next.ServeHTTP(w, r)
			return
		}

		allowed, info := s.limiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging writes one access log line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.sink.LogRequest(r, status, extractClientID(r))
	})
}

// withRecover turns a handler panic into a 500 JSON response.
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.sink.LogError(fmt.Errorf("panic: %v", rec), r.Method+" "+r.URL.Path)
				s.errorResponse(w, http.StatusInternalServerError, MsgUnexpected)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.sink.LogError(err, "encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// extractClientID identifies the caller for rate limiting and logs. Proxy
// headers are checked first, then the connection address.
func extractClientID(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds()+0.5)))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"success": false,
		"error":   MsgRateLimited,
	}
	if info.Limit > 0 {
		response["limit"] = info.Limit
		response["remaining"] = info.Remaining
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds() + 0.5)
	}

	s.sink.Logger().Warn("rate limit exceeded",
		"limit", info.Limit,
		"reset", info.ResetTime.Format(time.RFC3339),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
