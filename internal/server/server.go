package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Edbro78/investeringsprognose/internal/calculation"
	"github.com/Edbro78/investeringsprognose/internal/config"
)

// shutdownGrace is how long in-flight requests get once ctx is cancelled.
const shutdownGrace = 5 * time.Second

// Run serves the API on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) error {
	engine := calculation.NewCalculationEngine()
	engine.MonteCarlo = calculation.MonteCarloConfig{Trials: cfg.MonteCarloTrials, Workers: cfg.MonteCarloWorkers}
	engine.SetLogger(calculation.NewSlogLogger(logger))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(NewService(engine, logger), cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("prognose listening", "addr", cfg.Addr, "mc_trials", cfg.MonteCarloTrials)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	logger.Info("shutting down prognose...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
