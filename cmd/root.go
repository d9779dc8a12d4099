// Package cmd defines and implements the CLI commands for the supplications executable.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/advice"
	"github.com/JakeFAU/daily-supplications/internal/api"
	"github.com/JakeFAU/daily-supplications/internal/app"
	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/config"
	"github.com/JakeFAU/daily-supplications/internal/logging"
	"github.com/JakeFAU/daily-supplications/internal/reminder"
	"github.com/JakeFAU/daily-supplications/internal/settings"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

const closeTimeout = 10 * time.Second

// App defines the application interface that commands use, so tests can
// inject their own.
type App interface {
	Close(ctx context.Context) error
	Logger() *zap.Logger
	Config() config.Config
	Progress() *store.ProgressStore
	Settings() *settings.Service
	Catalog() *catalog.Catalog
	Advice() *advice.Book
	Rotator() *advice.Rotator
	Scheduler() *reminder.Scheduler
	Server() (*api.Server, error)
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "supplications",
		Short: "Track daily morning and evening supplications.",
		Long: `supplications keeps per-language progress through the bundled morning and
evening supplication lists, user-authored custom supplications, preferences,
and reminder delivery. Run "serve" for the HTTP API, or use the subcommands
to inspect and change state directly.`,
		SilenceUsage: true,

		// Build the application before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return err
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				logging.Sync(logger)
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env vars use the SUPPLICATIONS_ prefix")

	cmd.AddCommand(
		newServeCmd(),
		newProgressCmd(),
		newCustomCmd(),
		newSettingsCmd(),
		newAdviceCmd(),
	)
	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withApp resolves the App built in PersistentPreRunE, runs fn, and closes
// the App whether or not fn succeeds.
func withApp(fn func(cmd *cobra.Command, a App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := resolveApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			if cerr := a.Close(ctx); cerr != nil {
				a.Logger().Warn("error closing application", zap.Error(cerr))
			}
			logging.Sync(a.Logger())
		}()
		return fn(cmd, a, args)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// resolveLanguage parses the --lang flag, defaulting to the active language.
func resolveLanguage(a App, raw string) (catalog.Language, error) {
	if raw == "" {
		return a.Settings().Language(), nil
	}
	return catalog.ParseLanguage(raw)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
