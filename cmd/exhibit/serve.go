package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clearcourse-hq/exhibit/pkg/export/retention"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the long-lived engine mode",
	Long: `Run the engine's long-lived mode: the Prometheus metrics endpoint,
redaction rule watching, and scheduled retention sweeps. The process runs
until interrupted.

Examples:
  exhibit serve
  exhibit serve --config /etc/exhibit/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	logger := slog.Default().With("component", "serve")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pruner := retention.NewPruner(a.storage, a.cfg.Retention, a.metrics)
	if err := pruner.Start(ctx); err != nil {
		return err
	}
	defer pruner.Stop()
	if next := pruner.NextPruning(); next != nil {
		logger.Info("retention sweeps scheduled", "next_run", next)
	}

	var srv *http.Server
	errCh := make(chan error, 1)
	if a.cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(a.cfg.Telemetry.Metrics.Path, a.metrics.Handler())
		srv = &http.Server{
			Addr:              a.cfg.Telemetry.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics endpoint listening",
				"address", srv.Addr,
				"path", a.cfg.Telemetry.Metrics.Path,
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("metrics server failed: %w", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}
	return nil
}
