package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/applyme/internal/adapter/metrics"
	"github.com/pscheid92/applyme/internal/app"
	"github.com/pscheid92/applyme/internal/domain"
	"github.com/pscheid92/applyme/internal/platform/config"
	"github.com/pscheid92/applyme/internal/session"
	"github.com/pscheid92/applyme/web"
)

type appService interface {
	Signup(ctx context.Context, sess app.Session, email, password string) domain.Outcome
	Login(ctx context.Context, sess app.Session, email, password string) domain.Outcome
	Logout(ctx context.Context, sess app.Session) domain.Outcome
	CreateBatch(ctx context.Context, sess app.Session, field, location, jobType string) domain.Outcome
	Refresh(ctx context.Context, sess app.Session) domain.Outcome
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app      appService
	sessions *session.Manager

	templates *template.Template

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler

	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer wires the web surface. reg may be nil to disable /metrics.
func NewServer(cfg *config.Config, app appService, sessions *session.Manager, reg *prometheus.Registry, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		sessions:     sessions,
		templates:    templates,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	if reg != nil {
		srv.httpMetrics = metrics.NewHTTPMetrics(reg)
		srv.metricsHandler = metrics.Handler(reg)
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
