// Command engine runs the evolution API server described in
// SPEC_FULL.md §6: it accepts run-management HTTP requests and drives
// each run's generations through an external fitness evaluator.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalnine/evogen/internal/api"
	"github.com/signalnine/evogen/internal/config"
	"github.com/signalnine/evogen/internal/fitness"
	"github.com/signalnine/evogen/internal/obs"
	"github.com/signalnine/evogen/internal/run"
)

const shutdownGrace = 10 * time.Second

func main() {
	os.Exit(realMain())
}

// realMain holds main's logic so its defers run before exit; deferred
// calls never run across an os.Exit.
func realMain() int {
	cfg, err := config.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine: invalid flags:", err)
		return 2
	}

	logger := obs.NewLogger(cfg.LogLevel)
	metrics := obs.NewMetrics()

	fitnessClient := fitness.New(fitness.Config{
		BaseURL: cfg.FitnessURL,
		Timeout: cfg.FitnessTimeout,
		Metrics: metrics,
	})

	manager := run.NewManager(fitnessClient, logger).WithMetrics(metrics)
	server := api.NewServer(manager, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("engine listening", "port", cfg.Port, "fitness_url", cfg.FitnessURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("engine failed to start", "error", err)
		return 1
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}
