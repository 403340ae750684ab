package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/db"
	"github.com/jonathan/cover-letter/internal/identity"
	"github.com/jonathan/cover-letter/internal/letters"
	"github.com/jonathan/cover-letter/internal/llm"
	"github.com/jonathan/cover-letter/internal/observability"
	"github.com/jonathan/cover-letter/internal/server"
	"github.com/jonathan/cover-letter/internal/server/ratelimit"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// tokenPurgeInterval is how often expired confirmation and recovery tokens are deleted.
const tokenPurgeInterval = time.Hour

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start an HTTP server that exposes the letter generation, feedback and auth endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	logger := newLogger(cfg.Server.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.server.Serve(gctx) })
	g.Go(func() error { return app.limiter.Run(gctx) })
	if app.database != nil {
		g.Go(func() error {
			purgeTokens(gctx, app.database, tokenPurgeInterval, logger)
			return nil
		})
	}
	return g.Wait()
}

// app is the wired service and the resources it owns.
type app struct {
	server   *server.Server
	limiter  *ratelimit.Limiter
	database *db.DB
	upstream llm.Client
}

// Close releases the upstream client and the database pool.
func (a *app) Close() {
	if a.upstream != nil {
		_ = a.upstream.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	limitCfg, err := ratelimit.LoadConfig()
	if err != nil {
		return nil, err
	}
	a.limiter = ratelimit.NewLimiter(limitCfg)

	a.upstream, err = newUpstream(ctx, cfg.Upstream, logger)
	if err != nil {
		return nil, err
	}
	var completer letters.Completer
	if a.upstream != nil {
		completer = a.upstream
	}
	generator := letters.New(completer, letters.Options{
		Temperature: cfg.Upstream.Temperature,
		MaxTokens:   cfg.Upstream.MaxTokens,
		Timeout:     cfg.Upstream.Timeout,
		Logger:      logger,
	})

	var feedbackStore observability.FeedbackStore
	var pinger server.Pinger
	if cfg.Database.URL != "" {
		a.database, err = db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := a.database.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		feedbackStore = a.database
		pinger = a.database
	}

	auth, err := newIdentity(cfg, a.database, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.server, err = server.New(server.Deps{
		Server:    cfg.Server,
		Identity:  cfg.Identity,
		Limiter:   a.limiter,
		Sink:      observability.NewSink(logger, feedbackStore),
		Generator: generator,
		Auth:      auth,
		Database:  pinger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return a, nil
}

// newUpstream returns nil without an error when no credential is configured,
// which makes every letter come from the template.
func newUpstream(ctx context.Context, cfg config.UpstreamConfig, logger *slog.Logger) (llm.Client, error) {
	client, err := llm.NewClient(ctx, llm.FromUpstream(cfg))
	if errors.Is(err, llm.ErrNoCredentials) {
		logger.Warn("no upstream API key configured, serving template letters", "provider", cfg.Provider)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}
	logger.Info("upstream configured", "provider", cfg.Provider, "model", client.Model())
	return client, nil
}

func newIdentity(cfg *config.Config, database *db.DB, logger *slog.Logger) (identity.Optional, error) {
	switch cfg.Identity.Provider {
	case config.IdentitySupabase:
		gt, err := identity.NewGoTrue(cfg.Identity)
		if errors.Is(err, identity.ErrUnavailable) {
			logger.Warn("supabase credentials missing, auth endpoints run in demo mode")
			return identity.None(), nil
		}
		if err != nil {
			return identity.None(), err
		}
		return identity.Some(gt), nil

	case config.IdentityLocal:
		if database == nil {
			return identity.None(), fmt.Errorf("IDENTITY_PROVIDER=local requires DATABASE_URL")
		}
		passwords, err := config.NewPasswordConfig()
		if err != nil {
			return identity.None(), err
		}
		jwtCfg, err := config.NewJWTConfig()
		if err != nil {
			return identity.None(), err
		}
		confirmURL := strings.TrimRight(cfg.Upstream.AppURL, "/") + "/auth/confirm"
		return identity.Some(identity.NewLocal(database, passwords, identity.NewTokenService(jwtCfg), confirmURL, logger)), nil

	default:
		return identity.None(), nil
	}
}

// tokenPurger is the part of the database the purge loop needs.
type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// purgeTokens deletes expired auth tokens every interval until ctx is done.
func purgeTokens(ctx context.Context, store tokenPurger, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Warn("failed to purge expired tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged expired tokens", "count", n)
			}
		}
	}
}
