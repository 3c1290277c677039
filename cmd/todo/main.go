package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"git.sr.ht/~jakintosh/todo/internal/config"
	"git.sr.ht/~jakintosh/todo/internal/domain"
	"git.sr.ht/~jakintosh/todo/internal/logging"
	"git.sr.ht/~jakintosh/todo/internal/store"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "JSON API for a list of todo items",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd())

	// Running without a subcommand serves.
	root.RunE = serve.RunE
	return root
}

// loadRuntime resolves configuration and builds the root logger.
func loadRuntime(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
		Prefix:     "todo",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore opens the store at databaseURL, creates the schema and checks
// the connection is usable. The caller closes the returned store.
func openStore(ctx context.Context, databaseURL string, logger *log.Logger) (domain.Store, error) {
	s, err := store.Open(databaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := s.Init(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("store not reachable: %w", err)
	}
	logger.Info("Store ready", "database", redact(databaseURL))
	return s, nil
}

// redact hides any password in a database URL before it is logged.
func redact(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.User == nil {
		return databaseURL
	}
	return u.Redacted()
}
