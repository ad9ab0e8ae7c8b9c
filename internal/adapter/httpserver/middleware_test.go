package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/applyme/internal/domain"
	"github.com/pscheid92/applyme/internal/platform/correlation"
	apperrors "github.com/pscheid92/applyme/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareWithStructuredError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := callHandler(func(c echo.Context) error {
		return apperrors.ValidationError("invalid input")
	}, c)
	require.NoError(t, err) // ErrorHandlingMiddleware handles the error, doesn't return it

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
}

func TestMiddlewareWithStandardError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := callHandler(func(c echo.Context) error {
		return errors.New("standard error")
	}, c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, apperrors.TypeInternal, resp.Type)
}

func TestMiddlewareWithRequestError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("browserID", "b-1")

	err := callHandler(func(c echo.Context) error {
		return domain.NewHTTPError(http.StatusServiceUnavailable, "maintenance")
	}, c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "maintenance", resp.Error)
	assert.Equal(t, apperrors.TypeExternal, resp.Type)
	assert.InDelta(t, 503, resp.Context["upstream_status"], 0)
}

func TestMiddlewareWithNoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := callHandler(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	}, c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", rec.Body.String())
}

func TestMiddlewarePassesThroughHTTPError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), httptest.NewRecorder())

	httpErr := echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")
	err := callHandler(func(c echo.Context) error { return httpErr }, c)

	assert.Same(t, httpErr, err)
}

func TestMiddlewareAllErrorTypes(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperrors.Error
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{
			name:       "validation",
			err:        apperrors.ValidationError("invalid"),
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name:       "unauthorized",
			err:        apperrors.UnauthorizedError("Missing token"),
			wantStatus: http.StatusUnauthorized,
			wantType:   apperrors.TypeUnauthorized,
		},
		{
			name:       "conflict",
			err:        apperrors.ConflictError("Action déjà en cours"),
			wantStatus: http.StatusConflict,
			wantType:   apperrors.TypeConflict,
		},
		{
			name:       "internal",
			err:        apperrors.InternalError("failed", errors.New("cause")),
			wantStatus: http.StatusInternalServerError,
			wantType:   apperrors.TypeInternal,
		},
		{
			name:       "external",
			err:        apperrors.ExternalError("api failed", errors.New("timeout")),
			wantStatus: http.StatusBadGateway,
			wantType:   apperrors.TypeExternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := callHandler(func(c echo.Context) error {
				return tt.err
			}, c)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Type)
		})
	}
}

func TestCorrelationMiddleware_GeneratesID(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	var seen string
	err := correlationMiddleware(func(c echo.Context) error {
		id, ok := correlation.ID(c.Request().Context())
		require.True(t, ok)
		seen = id
		return nil
	})(c)
	require.NoError(t, err)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(correlation.Header))
}

func TestCorrelationMiddleware_ReusesIncomingID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(correlation.Header, "abc-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := correlationMiddleware(func(c echo.Context) error {
		id, _ := correlation.ID(c.Request().Context())
		assert.Equal(t, "abc-123", id)
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", rec.Header().Get(correlation.Header))
}

func TestCorrelationMiddleware_RejectsMalformedID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(correlation.Header, "bad id\n"+strings.Repeat("x", 100))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, correlationMiddleware(func(c echo.Context) error { return nil })(c))
	assert.NotContains(t, rec.Header().Get(correlation.Header), "bad id")
}
