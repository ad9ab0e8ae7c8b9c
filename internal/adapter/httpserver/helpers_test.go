package httpserver

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/applyme/internal/app"
	"github.com/pscheid92/applyme/internal/domain"
	"github.com/pscheid92/applyme/internal/platform/config"
	"github.com/pscheid92/applyme/internal/session"
	"github.com/pscheid92/applyme/web"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret   = "test-secret-key-32-bytes-long!!!"
	csrfTokenCookieName = "csrf_token"
)

// --- Mock implementations ---

type mockAppService struct {
	mu            sync.Mutex
	signupFn      func(ctx context.Context, sess app.Session, email, password string) domain.Outcome
	loginFn       func(ctx context.Context, sess app.Session, email, password string) domain.Outcome
	logoutFn      func(ctx context.Context, sess app.Session) domain.Outcome
	createBatchFn func(ctx context.Context, sess app.Session, field, location, jobType string) domain.Outcome
	refreshFn     func(ctx context.Context, sess app.Session) domain.Outcome
	calls         []domain.Action
}

func (m *mockAppService) record(a domain.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, a)
}

func (m *mockAppService) Signup(ctx context.Context, sess app.Session, email, password string) domain.Outcome {
	m.record(domain.ActionSignup)
	if m.signupFn != nil {
		return m.signupFn(ctx, sess, email, password)
	}
	return domain.Outcome{Action: domain.ActionSignup, AuthStatus: "OK (signup)"}
}

func (m *mockAppService) Login(ctx context.Context, sess app.Session, email, password string) domain.Outcome {
	m.record(domain.ActionLogin)
	if m.loginFn != nil {
		return m.loginFn(ctx, sess, email, password)
	}
	return domain.Outcome{Action: domain.ActionLogin, AuthStatus: "OK (login)"}
}

func (m *mockAppService) Logout(ctx context.Context, sess app.Session) domain.Outcome {
	m.record(domain.ActionLogout)
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sess)
	}
	return domain.Outcome{Action: domain.ActionLogout, AuthStatus: "Déconnecté"}
}

func (m *mockAppService) CreateBatch(ctx context.Context, sess app.Session, field, location, jobType string) domain.Outcome {
	m.record(domain.ActionCreateBatch)
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, sess, field, location, jobType)
	}
	return domain.Outcome{Action: domain.ActionCreateBatch}
}

func (m *mockAppService) Refresh(ctx context.Context, sess app.Session) domain.Outcome {
	m.record(domain.ActionRefresh)
	if m.refreshFn != nil {
		return m.refreshFn(ctx, sess)
	}
	return domain.Outcome{Action: domain.ActionRefresh}
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		Port:            "0",
		SessionSecret:   testSessionSecret,
		SessionMaxAge:   time.Hour,
		ActionRateLimit: 1000,
		ActionRateBurst: 1000,
	}
}

func newTestServer(t *testing.T, svc appService, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	require.NoError(t, err)

	sessions, err := session.NewManager(session.Options{Secret: testSessionSecret, MaxAge: time.Hour})
	require.NoError(t, err)

	srv := &Server{
		echo:      echo.New(),
		config:    testConfig(),
		app:       svc,
		sessions:  sessions,
		templates: tmpl,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withSessions(m *session.Manager) func(*Server) {
	return func(s *Server) {
		s.sessions = m
	}
}

func withConfig(mutate func(*config.Config)) func(*Server) {
	return func(s *Server) {
		mutate(s.config)
	}
}

// browser carries cookies and the CSRF token across requests like a real one.
type browser struct {
	t       *testing.T
	srv     *Server
	cookies map[string]*http.Cookie
	csrf    string
}

func newBrowser(t *testing.T, srv *Server) *browser {
	t.Helper()
	b := &browser{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, b.csrf, "CSRF cookie should be set")
	return b
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.srv.echo.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
		if c.Name == csrfTokenCookieName {
			b.csrf = c.Value
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", b.csrf)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.do(req)
}

func (b *browser) postJSON(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	req.Header.Set("X-CSRF-Token", b.csrf)
	return b.do(req)
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}
