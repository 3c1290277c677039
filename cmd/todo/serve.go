package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.sr.ht/~jakintosh/todo/internal/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			logger.Info("logging initialized",
				"level", cfg.LogLevel,
				"file", cfg.LogFile,
				"config", cfg.ConfigFile,
				"database", redact(cfg.DatabaseURL),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Initialize Store
			s, err := openStore(ctx, cfg.DatabaseURL, logger.WithPrefix("store"))
			if err != nil {
				logger.Fatal("Store unavailable", "err", err)
			}
			defer s.Close()

			srv, err := web.NewServer(s, web.ServerOptions{
				Logger:      logger.Logger,
				CORSOrigins: cfg.CORSOrigins,
			})
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server", "addr", cfg.Addr, "cors_origins", cfg.CORSOrigins)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Server failed", "err", err)
					return err
				}
			case <-ctx.Done():
				logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Error("Graceful shutdown failed", "err", err)
					return err
				}
			}
			return nil
		},
	}
}
