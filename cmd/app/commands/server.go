package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/allisson/wallets/internal/app"
	"github.com/allisson/wallets/internal/config"
)

// RunServer starts the HTTP server with graceful shutdown support.
// Ensures the authority wallet exists, then serves DID documents and health
// endpoints, schedules the summary sweep and runs the outbox worker. Blocks
// until receiving SIGINT/SIGTERM or encountering a fatal error.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server",
		slog.String("version", version),
		slog.String("db_driver", cfg.DBDriver),
	)

	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bootstrap, err := container.Bootstrap()
	if err != nil {
		return fmt.Errorf("failed to initialize bootstrap: %w", err)
	}
	if err := bootstrap.EnsureAuthorityWallet(ctx); err != nil {
		return fmt.Errorf("failed to ensure authority wallet: %w", err)
	}

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	if cfg.SummarySweepEnabled {
		sweeper, err := container.Sweeper()
		if err != nil {
			return fmt.Errorf("failed to initialize summary sweep: %w", err)
		}
		if err := sweeper.Start(ctx); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	serverErr := make(chan error, 3)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	if cfg.OutboxEnabled {
		worker, err := container.OutboxUseCase()
		if err != nil {
			return fmt.Errorf("failed to initialize outbox worker: %w", err)
		}
		go func() {
			if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				serverErr <- fmt.Errorf("outbox worker error: %w", err)
			}
		}()
	}

	var shutdownErrors []error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		shutdownErrors = append(shutdownErrors, err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}
