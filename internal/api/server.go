// Package api exposes the retrieval service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/metrics"
	"docqa/internal/search"
)

// Service is the subset of the RAG facade served over HTTP.
type Service interface {
	IngestDocument(ctx context.Context, sessionID, documentID string, chunks []string, meta domain.DocumentMetadata) (*domain.Document, error)
	IngestText(ctx context.Context, sessionID, documentID, filename, content string) (*domain.Document, error)
	Search(ctx context.Context, query string, opts search.Options) ([]domain.SearchResult, error)
	CrossDocumentSearch(ctx context.Context, query, sessionID string, limit int) ([]domain.DocumentGroup, error)
	GetRelevantContext(ctx context.Context, query, sessionID string, maxTokens int) (domain.Context, error)
	Answer(ctx context.Context, question, sessionID string) (domain.Answer, error)
	DeleteSession(sessionID string)
	DeleteDocument(documentID string) error
	Document(documentID string) (*domain.Document, bool)
	GetSessionStats(sessionID string) domain.SessionStats
	ListDocuments(sessionID string) []*domain.Document
}

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// Server provides HTTP endpoints for the retrieval service.
type Server struct {
	echo    *echo.Echo
	service Service
	metrics *metrics.Metrics
	logger  *zap.Logger
	config  *Config
}

// NewServer creates a new HTTP server. m may be nil, in which case
// /metrics is not served.
func NewServer(svc Service, m *metrics.Metrics, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "127.0.0.1", Port: 8080}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(cfg.RequestTimeout))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the response so the logged status is final
				c.Error(err)
			}
			duration := time.Since(start)
			status := c.Response().Status

			if m != nil {
				m.HTTPRequests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
				m.HTTPRequestDuration.WithLabelValues(c.Path()).Observe(duration.Seconds())
			}
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	})

	s := &Server{
		echo:    e,
		service: svc,
		metrics: m,
		logger:  logger,
		config:  cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")
	v1.POST("/sessions/:session/documents", s.handleIngest)
	v1.GET("/sessions/:session/documents", s.handleListDocuments)
	v1.DELETE("/sessions/:session/documents/:document", s.handleDeleteDocument)
	v1.GET("/sessions/:session/stats", s.handleStats)
	v1.DELETE("/sessions/:session", s.handleDeleteSession)
	v1.POST("/search", s.handleSearch)
	v1.POST("/search/documents", s.handleDocumentSearch)
	v1.POST("/context", s.handleContext)
	v1.POST("/answer", s.handleAnswer)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
