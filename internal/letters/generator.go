// Package letters drafts cover letters through an upstream model and falls back
// to a deterministic template when the model is unavailable.
package letters

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/cover-letter/internal/llm"
	"github.com/jonathan/cover-letter/internal/types"
)

// Completer is the subset of llm.Client the generator needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Options tune the upstream request.
type Options struct {
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
	Logger      *slog.Logger
}

// DefaultOptions match the production OpenRouter settings.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.7,
		MaxTokens:   1024,
		Timeout:     30 * time.Second,
	}
}

// Generator produces cover letters.
type Generator struct {
	client Completer
	opts   Options
	logger *slog.Logger
}

// New returns a Generator. Zero MaxTokens and Timeout take their defaults;
// Temperature is used as given. A nil client means no upstream credential is
// configured and every letter comes from the template.
func New(client Completer, opts Options) *Generator {
	def := DefaultOptions()
	if opts.MaxTokens == 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, opts: opts, logger: logger}
}

// HasUpstream reports whether letters are sent to a model.
func (g *Generator) HasUpstream() bool {
	return g.client != nil
}

// Generate drafts a letter for a validated input. The upstream call runs
// to completion or timeout even if ctx is cancelled by the client.
func (g *Generator) Generate(ctx context.Context, in types.LetterInput) Result {
	if g.client == nil {
		g.logger.Warn("upstream credential not configured, using template letter")
		return FellBack(Fallback(in), ReasonNoCredentials, nil)
	}

	system, user, err := BuildPrompt(in)
	if err != nil {
		g.logger.Error("prompt unavailable, using template letter", "error", err)
		return FellBack(Fallback(in), ReasonPromptUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.opts.Timeout)
	defer cancel()

	start := time.Now()
	text, err := g.client.Complete(callCtx, llm.Request{
		System:      system,
		User:        user,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		g.logger.Error("upstream authentication failed", "error", err, "elapsed", elapsed)
		return Failed(FailureAuthentication, err)
	case errors.Is(err, llm.ErrRateLimited):
		g.logger.Warn("upstream rate limited", "error", err, "elapsed", elapsed)
		return Failed(FailureUpstreamRateLimited, err)
	case err != nil:
		g.logger.Warn("upstream call failed, using template letter", "error", err, "elapsed", elapsed)
		return FellBack(Fallback(in), ReasonUpstreamError, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		g.logger.Error("upstream returned empty letter", "elapsed", elapsed)
		return Failed(FailureEmptyResponse, ErrEmptyResponse)
	}

	g.logger.Debug("letter generated", "chars", len([]rune(text)), "elapsed", elapsed)
	return Generated(text)
}
