package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/applyme/internal/domain"
	"github.com/pscheid92/applyme/internal/render"
	"github.com/pscheid92/applyme/internal/session"
	"golang.org/x/sync/singleflight"
)

const (
	guardPruneInterval = time.Minute
	settledRetention   = 5 * time.Minute
)

// Action outcome labels reported to the ActionObserver.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeRejected     = "rejected"
	OutcomePrecondition = "precondition"
)

const (
	statusSignupOK  = "OK (signup)"
	statusLoginOK   = "OK (login)"
	statusLoggedOut = "Déconnecté"
	statusBatchOK   = "Batch créé. Maintenant fais tourner n8n pour insérer des applications mock."
	statusRefreshOK = "OK — applications: %d"
)

type apiClient interface {
	Signup(ctx context.Context, token string, creds domain.Credentials) (*domain.AuthResult, error)
	Login(ctx context.Context, token string, creds domain.Credentials) (*domain.AuthResult, error)
	CreateBatch(ctx context.Context, token string, req domain.BatchRequest) (*domain.Batch, error)
	Dashboard(ctx context.Context, token, batchID string) (*domain.Dashboard, error)
}

// Session is the per-request browser state an action reads and mutates.
type Session interface {
	State() session.State
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	SetBatchID(id string)
}

// ActionObserver receives one call per finished action.
type ActionObserver interface {
	ObserveAction(action domain.Action, outcome string, duration time.Duration)
}

type noopActionObserver struct{}

func (noopActionObserver) ObserveAction(domain.Action, string, time.Duration) {}

// Service runs user actions. Every action makes at most one API call and
// never returns an error: failures become the status text of the Outcome.
type Service struct {
	api          apiClient
	guard        *ActionGuard
	observer     ActionObserver
	clock        clockwork.Clock
	refreshGroup singleflight.Group
	stopCh       chan struct{}
	stopOnce     sync.Once
}

// NewService creates the service and starts pruning settled guard entries.
// observer may be nil.
func NewService(api apiClient, clock clockwork.Clock, observer ActionObserver) *Service {
	if observer == nil {
		observer = noopActionObserver{}
	}
	s := &Service{
		api:      api,
		guard:    NewActionGuard(clock),
		observer: observer,
		clock:    clock,
		stopCh:   make(chan struct{}),
	}

	s.startPruneTimer()
	return s
}

// Guard exposes the action state machine for inspection.
func (s *Service) Guard() *ActionGuard { return s.guard }

// InitialAuthStatus is the auth text shown before any action ran.
func InitialAuthStatus(state session.State) string {
	if state.Authenticated() {
		return "Token présent"
	}
	return "Pas connecté"
}

func (s *Service) Signup(ctx context.Context, sess Session, email, password string) domain.Outcome {
	return s.authenticate(ctx, sess, domain.ActionSignup, s.api.Signup, domain.Credentials{Email: email, Password: password}, statusSignupOK)
}

func (s *Service) Login(ctx context.Context, sess Session, email, password string) domain.Outcome {
	return s.authenticate(ctx, sess, domain.ActionLogin, s.api.Login, domain.Credentials{Email: email, Password: password}, statusLoginOK)
}

type authCall func(ctx context.Context, token string, creds domain.Credentials) (*domain.AuthResult, error)

func (s *Service) authenticate(ctx context.Context, sess Session, action domain.Action, call authCall, creds domain.Credentials, okStatus string) domain.Outcome {
	return s.run(ctx, sess, action, func() domain.Outcome {
		result, err := call(ctx, sess.State().Token, creds)
		if err != nil {
			slog.WarnContext(ctx, "Authentication failed", "action", action, "error", err)
			return failed(action, err)
		}
		if err := sess.SetToken(ctx, result.Token); err != nil {
			slog.ErrorContext(ctx, "Failed to store token", "action", action, "error", err)
			return failed(action, err)
		}

		slog.InfoContext(ctx, "Authenticated", "action", action, "browser_id", sess.State().BrowserID)
		return domain.Outcome{Action: action, AuthStatus: okStatus}
	})
}

// Logout clears the stored token. It makes no network call.
func (s *Service) Logout(ctx context.Context, sess Session) domain.Outcome {
	return s.run(ctx, sess, domain.ActionLogout, func() domain.Outcome {
		if err := sess.ClearToken(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to clear token", "error", err)
			return failed(domain.ActionLogout, err)
		}

		slog.InfoContext(ctx, "Logged out", "browser_id", sess.State().BrowserID)
		return domain.Outcome{Action: domain.ActionLogout, AuthStatus: statusLoggedOut}
	})
}

// CreateBatch requests a new batch and makes it the session's current one.
func (s *Service) CreateBatch(ctx context.Context, sess Session, field, location, jobType string) domain.Outcome {
	return s.run(ctx, sess, domain.ActionCreateBatch, func() domain.Outcome {
		req := domain.BatchRequest{Field: field, Location: location, JobType: jobType}

		batch, err := s.api.CreateBatch(ctx, sess.State().Token, req)
		if err != nil {
			slog.WarnContext(ctx, "Batch creation failed", "error", err)
			return failed(domain.ActionCreateBatch, err)
		}

		sess.SetBatchID(batch.ID)
		state := sess.State()

		slog.InfoContext(ctx, "Batch created", "batch_id", batch.ID, "field", field, "location", location, "job_type", jobType)
		return domain.Outcome{
			Action:      domain.ActionCreateBatch,
			BatchStatus: statusBatchOK,
			BatchID:     state.DisplayBatchID(),
			Batch:       batch,
		}
	})
}

// Refresh fetches the dashboard of the current batch. Without a batch it
// fails locally. Concurrent refreshes of the same (token, batch) share one
// upstream call.
func (s *Service) Refresh(ctx context.Context, sess Session) domain.Outcome {
	return s.run(ctx, sess, domain.ActionRefresh, func() domain.Outcome {
		state := sess.State()
		if !domain.HasBatch(state.BatchID) {
			slog.DebugContext(ctx, "Refresh without batch")
			return failed(domain.ActionRefresh, domain.ErrNoBatchSelected)
		}

		key := state.Token + "\x00" + state.BatchID
		v, err, shared := s.refreshGroup.Do(key, func() (any, error) {
			return s.api.Dashboard(ctx, state.Token, state.BatchID)
		})
		if err != nil {
			slog.WarnContext(ctx, "Dashboard refresh failed", "batch_id", state.BatchID, "error", err)
			out := failed(domain.ActionRefresh, err)
			out.BatchID = state.DisplayBatchID()
			return out
		}
		dash := v.(*domain.Dashboard)

		out := domain.Outcome{
			Action:       domain.ActionRefresh,
			BatchStatus:  fmt.Sprintf(statusRefreshOK, len(dash.Applications)),
			BatchID:      state.DisplayBatchID(),
			Rows:         render.Rows(dash.Applications),
			Count:        len(dash.Applications),
			Applications: dash.Applications,
		}
		if dash.Batch.ID != "" {
			batch := dash.Batch
			out.Batch = &batch
		}

		slog.InfoContext(ctx, "Dashboard refreshed", "batch_id", state.BatchID, "applications", out.Count, "shared", shared)
		return out
	})
}

// run passes fn through the action guard and reports the result.
func (s *Service) run(ctx context.Context, sess Session, action domain.Action, fn func() domain.Outcome) domain.Outcome {
	browserID := sess.State().BrowserID

	if err := s.guard.Begin(browserID, action); err != nil {
		slog.InfoContext(ctx, "Action rejected while in flight", "action", action, "browser_id", browserID)
		s.observer.ObserveAction(action, OutcomeRejected, 0)
		return failed(action, err)
	}

	var out domain.Outcome
	defer func() {
		elapsed := s.guard.End(browserID, action)
		s.observer.ObserveAction(action, outcomeLabel(out), elapsed)
	}()

	out = fn()
	return out
}

func outcomeLabel(out domain.Outcome) string {
	switch {
	case out.Err == nil:
		return OutcomeOK
	case errors.Is(out.Err, domain.ErrNoBatchSelected):
		return OutcomePrecondition
	default:
		return OutcomeError
	}
}

// failed builds the Outcome for err, placing the text in the status region
// of the action's group.
func failed(action domain.Action, err error) domain.Outcome {
	out := domain.Outcome{Action: action, Err: err}
	msg := domain.StatusMessage(err)
	switch action {
	case domain.ActionSignup, domain.ActionLogin, domain.ActionLogout:
		out.AuthStatus = msg
	default:
		out.BatchStatus = msg
	}
	return out
}

func (s *Service) startPruneTimer() {
	ticker := s.clock.NewTicker(guardPruneInterval)
	go func() {
		for {
			select {
			case <-ticker.Chan():
				if n := s.guard.Prune(settledRetention); n > 0 {
					slog.Debug("Pruned settled actions", "count", n)
				}
			case <-s.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the prune timer.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}
