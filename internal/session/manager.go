package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/applyme/internal/domain"
)

const (
	cookieName      = "applyme-session"
	keyBrowserID    = "browser_id"
	keyBatchID      = "batch_id"
	keyCookieToken  = domain.TokenKey
	minSecretLength = 32
)

// State is an immutable snapshot of one browser's session.
type State struct {
	BrowserID string
	Token     string
	BatchID   string
}

// Authenticated reports whether a token is held.
func (s State) Authenticated() bool { return s.Token != "" }

// DisplayBatchID returns the batch ID as shown on the page, "(aucun)" when unset.
func (s State) DisplayBatchID() string {
	if !domain.HasBatch(s.BatchID) {
		return domain.NoBatch
	}
	return s.BatchID
}

type Options struct {
	Secret string
	MaxAge time.Duration
	Secure bool
	// Tokens keeps tokens server-side. Nil stores them in the cookie.
	Tokens domain.TokenStore
	// Views keeps page state server-side. Nil uses process memory with
	// entries expiring after MaxAge.
	Views domain.ViewStore
	// Clock drives the default view store's expiry. Nil uses the real clock.
	Clock clockwork.Clock
}

type Manager struct {
	store  *sessions.CookieStore
	tokens domain.TokenStore
	views  domain.ViewStore
}

func NewManager(opts Options) (*Manager, error) {
	if len(opts.Secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d characters", minSecretLength)
	}

	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)

	views := opts.Views
	if views == nil {
		clock := opts.Clock
		if clock == nil {
			clock = clockwork.NewRealClock()
		}
		views = NewMemoryViewStore(clock, opts.MaxAge)
	}

	return &Manager{store: store, tokens: opts.Tokens, views: views}, nil
}

// ServerSide reports whether tokens are kept in a server-side store.
func (m *Manager) ServerSide() bool { return m.tokens != nil }

// Load reads the session of r. A missing or undecodable cookie yields a
// fresh session with a new browser ID.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	raw, err := m.store.Get(r, cookieName)
	if err != nil {
		slog.DebugContext(r.Context(), "Discarding undecodable session cookie", "error", err)
		raw, err = m.store.New(r, cookieName)
		if raw == nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	browserID, _ := raw.Values[keyBrowserID].(string)
	if _, err := uuid.Parse(browserID); err != nil {
		browserID = uuid.NewString()
		raw.Values[keyBrowserID] = browserID
	}
	batchID, _ := raw.Values[keyBatchID].(string)

	token, err := m.readToken(r.Context(), raw, browserID)
	if err != nil {
		return nil, err
	}

	// Page state is cosmetic: a failing store must not lock the user out.
	view, err := m.views.GetView(r.Context(), browserID)
	if err != nil {
		slog.WarnContext(r.Context(), "Failed to load page state", "browser_id", browserID, "error", err)
		view = domain.View{}
	}

	return &Session{
		mgr:  m,
		raw:  raw,
		r:    r,
		view: view,
		state: State{
			BrowserID: browserID,
			Token:     token,
			BatchID:   batchID,
		},
	}, nil
}

func (m *Manager) readToken(ctx context.Context, raw *sessions.Session, browserID string) (string, error) {
	if m.tokens == nil {
		token, _ := raw.Values[keyCookieToken].(string)
		return token, nil
	}
	token, err := m.tokens.Get(ctx, browserID)
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Session is the per-request handle on one browser's state. It is not safe
// for concurrent use; each request loads its own.
type Session struct {
	mgr   *Manager
	raw   *sessions.Session
	r     *http.Request
	state State
	view  domain.View
	dirty bool
}

// State returns a snapshot. Later mutations do not affect it.
func (s *Session) State() State { return s.state }

// View returns what the page showed after the last recorded action.
func (s *Session) View() domain.View { return s.view }

// Record applies an action's outcome to the page state and persists it. The
// in-request view is updated even when persisting fails.
func (s *Session) Record(ctx context.Context, out domain.Outcome) error {
	s.view = s.view.Apply(out)
	if err := s.mgr.views.SetView(ctx, s.state.BrowserID, s.view); err != nil {
		return fmt.Errorf("failed to store page state: %w", err)
	}
	return nil
}

// SetToken persists token immediately in server-side mode, or on Save in
// cookie mode. An empty token is the same as ClearToken.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	if s.mgr.tokens != nil {
		if err := s.mgr.tokens.Set(ctx, s.state.BrowserID, token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
	} else {
		s.raw.Values[keyCookieToken] = token
	}
	s.state.Token = token
	s.dirty = true
	return nil
}

func (s *Session) ClearToken(ctx context.Context) error {
	if s.mgr.tokens != nil {
		if err := s.mgr.tokens.Clear(ctx, s.state.BrowserID); err != nil {
			return fmt.Errorf("failed to clear token: %w", err)
		}
	} else {
		delete(s.raw.Values, keyCookieToken)
	}
	s.state.Token = ""
	s.dirty = true
	return nil
}

// SetBatchID selects the current batch. "" and "(aucun)" deselect.
func (s *Session) SetBatchID(id string) {
	if domain.HasBatch(id) {
		s.raw.Values[keyBatchID] = id
		s.state.BatchID = id
	} else {
		delete(s.raw.Values, keyBatchID)
		s.state.BatchID = ""
	}
	s.dirty = true
}

// Save writes the cookie. It always writes for a brand-new session so the
// browser ID sticks.
func (s *Session) Save(w http.ResponseWriter) error {
	if !s.dirty && !s.raw.IsNew {
		return nil
	}
	if err := s.raw.Save(s.r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.dirty = false
	return nil
}
