package httpserver

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/applyme/internal/app"
	"github.com/pscheid92/applyme/internal/domain"
	apperrors "github.com/pscheid92/applyme/internal/platform/errors"
	"github.com/pscheid92/applyme/internal/platform/version"
	"github.com/pscheid92/applyme/internal/render"
	"github.com/pscheid92/applyme/internal/session"
)

const pageTemplate = "index.html"

type pageData struct {
	CSRFToken string

	AuthStatus  string
	BatchStatus string
	BatchID     string
	Batch       *domain.Batch
	Rows        []template.HTML

	Email    string
	Field    string
	Location string
	JobType  string

	Version string
}

// actionResponse is the JSON body for clients sending Accept: application/json.
type actionResponse struct {
	domain.Outcome
	Error *apperrors.ErrorResponse `json:"error,omitempty"`
}

type actionFunc func(c echo.Context, sess app.Session) domain.Outcome

func (s *Server) registerActionRoutes(csrfMiddleware, rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/auth/signup", s.handleAction(s.signup), rateLimiter, csrfMiddleware)
	s.echo.POST("/auth/login", s.handleAction(s.login), rateLimiter, csrfMiddleware)
	s.echo.POST("/auth/logout", s.handleAction(s.logout), rateLimiter, csrfMiddleware)
	s.echo.POST("/batches", s.handleAction(s.createBatch), rateLimiter, csrfMiddleware)
	s.echo.POST("/dashboard/refresh", s.handleAction(s.refresh), rateLimiter, csrfMiddleware)
}

func (s *Server) signup(c echo.Context, sess app.Session) domain.Outcome {
	return s.app.Signup(c.Request().Context(), sess, c.FormValue("email"), c.FormValue("password"))
}

func (s *Server) login(c echo.Context, sess app.Session) domain.Outcome {
	return s.app.Login(c.Request().Context(), sess, c.FormValue("email"), c.FormValue("password"))
}

func (s *Server) logout(c echo.Context, sess app.Session) domain.Outcome {
	return s.app.Logout(c.Request().Context(), sess)
}

func (s *Server) createBatch(c echo.Context, sess app.Session) domain.Outcome {
	return s.app.CreateBatch(c.Request().Context(), sess, c.FormValue("field"), c.FormValue("location"), c.FormValue("job_type"))
}

func (s *Server) refresh(c echo.Context, sess app.Session) domain.Outcome {
	return s.app.Refresh(c.Request().Context(), sess)
}

func (s *Server) handleIndex(c echo.Context) error {
	sess, err := s.loadSession(c)
	if err != nil {
		return err
	}
	if err := sess.Save(c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	return s.renderTemplate(c, pageTemplate, s.newPageData(c, sess))
}

// handleAction runs one user action, persists the session and answers with
// the page or, for JSON clients, the Outcome.
func (s *Server) handleAction(action actionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := s.loadSession(c)
		if err != nil {
			return err
		}

		out := action(c, sess)
		if err := sess.Record(c.Request().Context(), out); err != nil {
			slog.WarnContext(c.Request().Context(), "Failed to persist page state", "action", out.Action, "error", err)
		}

		if err := sess.Save(c.Response().Writer); err != nil {
			return apperrors.InternalError("failed to save session", err).WithField("action", string(out.Action))
		}

		if wantsJSON(c) {
			return s.writeOutcomeJSON(c, out)
		}

		data := s.newPageData(c, sess)
		data.Email = c.FormValue("email")
		data.Field = c.FormValue("field")
		data.Location = c.FormValue("location")
		data.JobType = c.FormValue("job_type")

		return s.renderTemplate(c, pageTemplate, data)
	}
}

func (s *Server) loadSession(c echo.Context) (*session.Session, error) {
	sess, err := s.sessions.Load(c.Request())
	if err != nil {
		return nil, apperrors.InternalError("failed to load session", err)
	}
	c.Set("browserID", sess.State().BrowserID)
	return sess, nil
}

func (s *Server) writeOutcomeJSON(c echo.Context, out domain.Outcome) error {
	status := http.StatusOK
	resp := actionResponse{Outcome: out}
	if out.Failed() {
		structuredErr := apperrors.AsStructuredError(out.Err)
		status = structuredErr.HTTPStatus()
		errResp := structuredErr.ToResponse()
		resp.Error = &errResp
	}

	if err := c.JSON(status, resp); err != nil {
		return fmt.Errorf("failed to write outcome response: %w", err)
	}
	return nil
}

// newPageData renders the session's current state. Regions no action has
// written yet show their initial text and the placeholder table.
func (s *Server) newPageData(c echo.Context, sess *session.Session) pageData {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	state := sess.State()
	view := sess.View()

	data := pageData{
		CSRFToken:   token,
		AuthStatus:  view.AuthStatus,
		BatchStatus: view.BatchStatus,
		BatchID:     state.DisplayBatchID(),
		Batch:       view.Batch,
		Rows:        view.Rows,
		Version:     version.UserAgent(),
	}
	if data.AuthStatus == "" {
		data.AuthStatus = app.InitialAuthStatus(state)
	}
	if data.Rows == nil {
		data.Rows = render.Rows(nil)
	}
	return data
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
