package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/allisson/fieldvault/internal/metrics"
)

// metricsShutdownTimeout bounds graceful shutdown of the metrics server.
const metricsShutdownTimeout = 10 * time.Second

// RunMetricsServer starts an HTTP server exposing the Prometheus metrics
// endpoint at /metrics. It blocks until the context is canceled or an
// interrupt signal is received, then shuts down gracefully.
func RunMetricsServer(
	ctx context.Context,
	provider *metrics.Provider,
	logger *slog.Logger,
	port int,
) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", provider.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server started", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down metrics server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}

	return nil
}
