package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/wallets/internal/metrics"
)

// MetricsServer exposes /metrics on its own port, apart from the DID documents.
type MetricsServer struct {
	listener *listener
	router   *gin.Engine
}

// NewMetricsServer builds the scrape endpoint. A nil provider serves only 404s.
func NewMetricsServer(host string, port int, logger *slog.Logger, provider *metrics.Provider) *MetricsServer {
	router := gin.New()
	router.Use(gin.Recovery(), CustomLoggerMiddleware(logger))
	if provider != nil {
		router.GET("/metrics", gin.WrapH(provider.Handler()))
	}

	return &MetricsServer{
		listener: newListener("metrics server", host, port, logger),
		router:   router,
	}
}

// GetHandler returns the router for tests.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *MetricsServer) Start(ctx context.Context) error {
	return s.listener.serve(s.router)
}

// Shutdown stops the server, waiting for in-flight scrapes up to ctx.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.listener.shutdown(ctx)
}
