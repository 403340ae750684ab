// Package observability records request logs, generation metrics and user feedback.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jonathan/cover-letter/internal/types"
)

// summaryEvery is how many tracked outcomes pass between summary lines.
const summaryEvery = 10

// Metrics is a point-in-time copy of the generation counters.
type Metrics struct {
	TotalRequests         int64 `json:"totalRequests"`
	SuccessfulGenerations int64 `json:"successfulGenerations"`
	FailedGenerations     int64 `json:"failedGenerations"`
}

// FeedbackStore persists feedback submissions.
type FeedbackStore interface {
	SaveFeedback(ctx context.Context, fb types.Feedback) error
}

// Sink owns the process-wide counters and writes structured log lines.
// Logging methods never panic and never return errors.
type Sink struct {
	logger *slog.Logger
	store  FeedbackStore

	mu      sync.Mutex
	metrics Metrics
}

// NewSink returns a Sink writing to logger. A nil store keeps feedback in the log only.
func NewSink(logger *slog.Logger, store FeedbackStore) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger, store: store}
}

// Logger returns the underlying logger.
func (s *Sink) Logger() *slog.Logger {
	return s.logger
}

// LogRequest writes one access log line.
func (s *Sink) LogRequest(r *http.Request, status int, clientIP string) {
	defer s.swallow()

	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = "unknown"
	}
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"userAgent", userAgent,
		"ip", clientIP,
	)
}

// LogStage records a step of a request's lifecycle.
func (s *Sink) LogStage(requestID, stage string, attrs ...any) {
	defer s.swallow()

	s.logger.Info("stage", append([]any{"requestId", requestID, "stage", stage}, attrs...)...)
}

// LogError writes an error with the context it happened in.
func (s *Sink) LogError(err error, errContext string) {
	defer s.swallow()

	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	s.logger.Error("error", "context", errContext, "message", msg)
}

// TrackSuccess counts a successful generation.
func (s *Sink) TrackSuccess() {
	defer s.swallow()
	s.track(true)
}

// TrackFailure counts a failed generation.
func (s *Sink) TrackFailure() {
	defer s.swallow()
	s.track(false)
}

func (s *Sink) track(success bool) {
	s.mu.Lock()
	s.metrics.TotalRequests++
	if success {
		s.metrics.SuccessfulGenerations++
	} else {
		s.metrics.FailedGenerations++
	}
	snap := s.metrics
	s.mu.Unlock()

	if snap.TotalRequests%summaryEvery == 0 {
		s.logger.Info(fmt.Sprintf("metrics: %d successful, %d failed, %d total requests",
			snap.SuccessfulGenerations, snap.FailedGenerations, snap.TotalRequests),
			"successful", snap.SuccessfulGenerations,
			"failed", snap.FailedGenerations,
			"total", snap.TotalRequests,
		)
	}
}

// Snapshot returns the current counters.
func (s *Sink) Snapshot() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// CollectFeedback logs a feedback submission and saves it when a store is
// configured. The client IP is never recorded.
func (s *Sink) CollectFeedback(ctx context.Context, fb types.Feedback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("feedback collection panicked: %v", r)
		}
	}()

	s.logger.Info("feedback",
		"rating", fb.Rating,
		"comments", fb.Comments,
		"userAgent", fb.UserAgent,
		"ip", "anonymous",
	)

	if s.store == nil {
		return nil
	}
	if err := s.store.SaveFeedback(ctx, fb); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// swallow recovers from a panic raised while logging.
func (s *Sink) swallow() {
	_ = recover()
}
