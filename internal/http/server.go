// Package http provides the HTTP server: liveness, readiness and DID document
// hosting.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/wallets/internal/config"
	"github.com/allisson/wallets/internal/did"
	"github.com/allisson/wallets/internal/health"
	"github.com/allisson/wallets/internal/metrics"
)

// ReadinessChecker runs the readiness self-tests.
type ReadinessChecker interface {
	Check(ctx context.Context) health.Report
}

// DocumentProvider builds DID documents of hosted wallets.
type DocumentProvider interface {
	CreateDidDocument(ctx context.Context, walletID string) (*did.Document, error)
}

// Server serves liveness, readiness and DID documents.
type Server struct {
	listener *listener
	router   *gin.Engine
	checker  ReadinessChecker
	logger   *slog.Logger
}

// NewServer creates a new HTTP server. A nil checker reports not ready.
func NewServer(
	checker ReadinessChecker,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		checker:  checker,
		logger:   logger,
		listener: newListener("http server", host, port, logger),
	}
}

// SetupRouter registers middlewares and routes.
func (s *Server) SetupRouter(
	cfg *config.Config,
	documents DocumentProvider,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	didHandler := NewDIDHandler(documents, s.logger)
	router.GET("/:walletId/did.json", didHandler.GetDocument)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. SetupRouter must run first.
func (s *Server) Start(ctx context.Context) error {
	return s.listener.serve(s.router)
}

// Shutdown stops accepting requests and drains in-flight ones up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.listener.shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if s.checker == nil {
		c.JSON(http.StatusServiceUnavailable, health.Report{
			Status:     health.StatusNotReady,
			Components: map[string]string{},
		})
		return
	}

	report := s.checker.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Ready() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
