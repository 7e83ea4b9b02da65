// Package commands implements the coach operator CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/juice-coach/internal/coach"
	"github.com/ashureev/juice-coach/internal/config"
	"github.com/ashureev/juice-coach/internal/identity"
	"github.com/ashureev/juice-coach/internal/juiceshop"
	"github.com/ashureev/juice-coach/internal/printer"
	"github.com/ashureev/juice-coach/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var versionString = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coach",
		Short: "coach - Juice Shop learning companion",
		Long: `coach inspects and edits the learning companion's coaching state.

It reads the same configuration as the server (environment variables,
optionally from .env) and works directly on the configured store. Run it
while the server is stopped: a running server keeps its own copy of the
state in memory and overwrites the store on its next change.`,
		Version: versionString,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		SilenceErrors:      true,
		SilenceUsage:       true,
	}

	root.AddCommand(newStateCmd(), newModeCmd(), newRecommendCmd(), newResetCmd())
	return root
}

// Execute runs the CLI. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// env is an opened store plus a coaching session on top of it.
type env struct {
	cfg     *config.Config
	kv      store.KV
	session *coach.Session
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func openEnv(cmd *cobra.Command) (*env, error) {
	errOut := cmd.ErrOrStderr()
	cfg, err := config.Load()
	if err != nil {
		return nil, printer.Error(errOut, "Invalid configuration", err.Error(),
			"check the environment variables or your .env file")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, printer.Error(errOut, "Store unavailable", err.Error(),
			"check STORE_BACKEND and its connection settings",
			"make sure the data directory is writable")
	}

	id, err := identity.EnsureInstallationID(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, printer.Error(errOut, "Store unavailable", err.Error())
	}

	logger := newLogger()
	opts := coach.Options{InstallationID: id, Logger: logger}
	if n := juiceshop.NewResetNotifier(cfg.Remote.ResetURL, cfg.Timeout.Remote, logger); n != nil {
		opts.Notifier = n
	}
	return &env{
		cfg:     cfg,
		kv:      kv,
		session: coach.NewSession(ctx, store.NewProgressStore(kv, logger), opts),
	}, nil
}

// Close waits for background notifications, then closes the store.
func (e *env) Close() {
	e.session.Close()
	_ = e.kv.Close()
}
