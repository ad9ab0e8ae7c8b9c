package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func TestHandleLiveness(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// liveness ignores dependencies
	srv := newTestServer(t, &mockAppService{}, withHealthChecks(HealthCheck{Name: "applyme_api", Check: healthErr("down")}))
	err := srv.handleLiveness(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"status":"ok"`)
	assert.Contains(t, body, `"uptime"`)
}

func TestHandleReadiness_NoChecks(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{}}`, rec.Body.String())
}

func TestHandleReadiness_AllHealthy(t *testing.T) {
	srv := newTestServer(t, &mockAppService{},
		withHealthChecks(
			HealthCheck{Name: "applyme_api", Check: healthOK},
			HealthCheck{Name: "redis", Check: healthOK},
		),
	)

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"applyme_api":"ok","redis":"ok"}}`, rec.Body.String())
}

func TestHandleReadiness_Failures(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		want   string
	}{
		{
			name: "api down",
			checks: []HealthCheck{
				{Name: "applyme_api", Check: healthErr("HTTP 503")},
				{Name: "redis", Check: healthOK},
			},
			want: `{"status":"unhealthy","checks":{"applyme_api":"HTTP 503","redis":"ok"}}`,
		},
		{
			name: "redis down",
			checks: []HealthCheck{
				{Name: "applyme_api", Check: healthOK},
				{Name: "redis", Check: healthErr("connection refused")},
			},
			want: `{"status":"unhealthy","checks":{"applyme_api":"ok","redis":"connection refused"}}`,
		},
		{
			name: "both down are both reported",
			checks: []HealthCheck{
				{Name: "applyme_api", Check: healthErr("API indisponible")},
				{Name: "redis", Check: healthErr("connection refused")},
			},
			want: `{"status":"unhealthy","checks":{"applyme_api":"API indisponible","redis":"connection refused"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			srv := newTestServer(t, &mockAppService{}, withHealthChecks(tt.checks...))
			err := srv.handleReadiness(c)

			require.NoError(t, err)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestHandleReadiness_ChecksShareDeadline(t *testing.T) {
	var deadlines int
	check := func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			deadlines++
		}
		return nil
	}
	srv := newTestServer(t, &mockAppService{}, withHealthChecks(HealthCheck{Name: "applyme_api", Check: check}))

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, deadlines)
}

func TestHandleVersion(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	srv := newTestServer(t, &mockAppService{})
	err := srv.handleVersion(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"service":"applyme-web"`)
	assert.Contains(t, body, `"version"`)
	assert.Contains(t, body, `"commit"`)
	assert.Contains(t, body, `"go_version"`)
}
