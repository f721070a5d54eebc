// Command graphengine is a CLI front end over the commit/snapshot engine:
// create branches, commit changesets, inspect history, diff and merge
// scenarios, all against a SQLite-backed datastore directory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/graphengine"
	"github.com/steveyegge/graphengine/internal/config"
	"github.com/steveyegge/graphengine/internal/store/layout"
)

var (
	cfgFile    string
	jsonOutput bool

	v        *viper.Viper
	settings config.Settings

	store   graphengine.Store
	engine  *graphengine.Engine
	watcher *layout.Watcher

	rootCtx    context.Context
	rootCancel context.CancelFunc

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "graphengine",
	Short:         "Inspect and drive a temporal property-graph datastore",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initEngine(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeEngine()
	},
}

func init() {
	v = config.New()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML or TOML, default: none)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	config.BindFlags(rootCmd, v)

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(schemaCmd)
}

func initEngine(cmd *cobra.Command) error {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger = slog.New(handler)

	s, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	s.Engine.Logger = logger
	settings = s

	st, err := graphengine.NewSQLiteStore(settings.StorePath, graphengine.WithAnalytics(settings.AnalyticsEnabled))
	if err != nil {
		return fmt.Errorf("open datastore %q: %w", settings.StorePath, err)
	}
	store = st

	eng, err := graphengine.New(settings.Engine, store)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	engine = eng

	w, err := layout.Watch(settings.StorePath, logger, func() {
		if err := engine.InvalidateCache(context.Background()); err != nil {
			logger.Warn("engine cache invalidation failed", "error", err)
		}
	})
	if err != nil {
		logger.Warn("datastore watch unavailable, engine cache will not auto-invalidate", "error", err)
	} else {
		watcher = w
	}

	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	logger.Debug("engine initialized", "store", settings.StorePath, "default_branch", settings.Engine.DefaultBranch)
	return nil
}

func closeEngine() {
	if rootCancel != nil {
		rootCancel()
	}
	if watcher != nil {
		if err := watcher.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing datastore watcher: %v\n", err)
		}
		watcher = nil
	}
	if store != nil {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing datastore: %v\n", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
