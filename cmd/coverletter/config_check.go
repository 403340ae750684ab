package main

import (
	"fmt"

	"github.com/jonathan/cover-letter/internal/config"
	"github.com/jonathan/cover-letter/internal/llm"
	"github.com/jonathan/cover-letter/internal/observability"
	"github.com/jonathan/cover-letter/internal/prompts"
	"github.com/jonathan/cover-letter/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the service configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration read from the environment",
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	checks := configChecks()
	failed := observability.NewPrinter(cmd.OutOrStdout()).PrintChecks("CONFIGURATION", checks)
	if failed > 0 {
		return fmt.Errorf("%d configuration check(s) failed", failed)
	}
	return nil
}

// configChecks reports one line per configuration section. A missing upstream
// key or identity backend is not a failure, only a degraded mode.
func configChecks() []observability.Check {
	cfg, err := config.Load()
	if err != nil {
		return []observability.Check{{Name: "config", OK: false, Detail: err.Error()}}
	}

	checks := []observability.Check{
		{Name: "server", OK: true, Detail: fmt.Sprintf("port %d, log level %s", cfg.Server.Port, cfg.Server.LogLevel)},
		upstreamCheck(cfg.Upstream),
		identityCheck(cfg),
		databaseCheck(cfg.Database),
		promptsCheck(),
	}

	if _, err := ratelimit.LoadConfig(); err != nil {
		checks = append(checks, observability.Check{Name: "ratelimit", OK: false, Detail: err.Error()})
	} else {
		checks = append(checks, observability.Check{Name: "ratelimit", OK: true, Detail: "ok"})
	}
	return checks
}

func upstreamCheck(u config.UpstreamConfig) observability.Check {
	if !llm.FromUpstream(u).HasCredential() {
		return observability.Check{Name: "upstream", OK: true, Detail: fmt.Sprintf("%s: no API key, template letters only", u.Provider)}
	}
	return observability.Check{Name: "upstream", OK: true, Detail: fmt.Sprintf("%s: %s", u.Provider, u.Model())}
}

func identityCheck(cfg *config.Config) observability.Check {
	id := cfg.Identity
	switch id.Provider {
	case config.IdentityNone:
		return observability.Check{Name: "identity", OK: true, Detail: "disabled"}
	case config.IdentitySupabase:
		if !id.Configured() {
			return observability.Check{Name: "identity", OK: true, Detail: "supabase: credentials missing, demo mode"}
		}
		return observability.Check{Name: "identity", OK: true, Detail: "supabase: " + id.SupabaseURL}
	}

	if cfg.Database.URL == "" {
		return observability.Check{Name: "identity", OK: false, Detail: "local: DATABASE_URL is required"}
	}
	if _, err := config.NewJWTConfig(); err != nil {
		return observability.Check{Name: "identity", OK: false, Detail: "local: " + err.Error()}
	}
	if _, err := config.NewPasswordConfig(); err != nil {
		return observability.Check{Name: "identity", OK: false, Detail: "local: " + err.Error()}
	}
	return observability.Check{Name: "identity", OK: true, Detail: "local"}
}

// promptsCheck confirms the embedded letter prompts carry both messages.
func promptsCheck() observability.Check {
	keys, err := prompts.List(prompts.Letters)
	if err != nil {
		return observability.Check{Name: "prompts", OK: false, Detail: err.Error()}
	}
	have := make(map[string]bool, len(keys))
	for _, k := range keys {
		have[k] = true
	}
	for _, want := range []string{prompts.KeySystem, prompts.KeyUser} {
		if !have[want] {
			return observability.Check{Name: "prompts", OK: false, Detail: fmt.Sprintf("%s: missing %q", prompts.Letters, want)}
		}
	}
	return observability.Check{Name: "prompts", OK: true, Detail: fmt.Sprintf("%s: %d prompts", prompts.Letters, len(keys))}
}

func databaseCheck(d config.DatabaseConfig) observability.Check {
	if d.URL == "" {
		return observability.Check{Name: "database", OK: true, Detail: "disabled, feedback is logged only"}
	}
	return observability.Check{Name: "database", OK: true, Detail: "configured"}
}
