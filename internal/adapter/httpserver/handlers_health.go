package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/applyme/internal/platform/version"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 5 * time.Second

// HealthCheck is a named dependency check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// handleLiveness never looks at dependencies.
func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

// handleReadiness runs every check concurrently and reports each result,
// so an API outage does not hide a Redis outage.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	result := s.checkDependencies(ctx)

	code := http.StatusOK
	if result.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	if err := c.JSON(code, result); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) checkDependencies(ctx context.Context) readiness {
	result := readiness{Status: "ready", Checks: make(map[string]string, len(s.healthChecks))}

	var mu sync.Mutex
	var g errgroup.Group
	for _, hc := range s.healthChecks {
		g.Go(func() error {
			state := "ok"
			if err := hc.Check(ctx); err != nil {
				state = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			result.Checks[hc.Name] = state
			if state != "ok" {
				result.Status = "unhealthy"
			}
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
