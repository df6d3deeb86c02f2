package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// listener runs one http.Server and logs its lifecycle under name.
type listener struct {
	name   string
	server *http.Server
	logger *slog.Logger
}

func newListener(name, host string, port int, logger *slog.Logger) *listener {
	return &listener{
		name:   name,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// serve blocks until the server stops. A graceful shutdown is not an error.
func (l *listener) serve(handler http.Handler) error {
	l.server.Handler = handler
	l.logger.Info("starting "+l.name, slog.String("addr", l.server.Addr))

	if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", l.name, err)
	}
	return nil
}

func (l *listener) shutdown(ctx context.Context) error {
	l.logger.Info("shutting down " + l.name)
	return l.server.Shutdown(ctx)
}
