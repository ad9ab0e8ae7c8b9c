package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/applyme/internal/domain"
)

type guardKey struct {
	browserID string
	action    domain.Action
}

// ActionGuard tracks each (browser, action) pair through Idle -> InFlight ->
// Settled. Begin refuses to start a pair that is already InFlight.
type ActionGuard struct {
	clock  clockwork.Clock
	mu     sync.Mutex
	states map[guardKey]domain.ActionState
}

func NewActionGuard(clock clockwork.Clock) *ActionGuard {
	return &ActionGuard{
		clock:  clock,
		states: make(map[guardKey]domain.ActionState),
	}
}

// Begin moves the pair to InFlight, or returns domain.ErrActionInFlight.
func (g *ActionGuard) Begin(browserID string, action domain.Action) error {
	k := guardKey{browserID: browserID, action: action}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.states[k].Phase == domain.PhaseInFlight {
		return domain.ErrActionInFlight
	}
	g.states[k] = domain.ActionState{Phase: domain.PhaseInFlight, Since: g.clock.Now()}
	return nil
}

// End moves the pair to Settled and returns how long it was InFlight.
func (g *ActionGuard) End(browserID string, action domain.Action) time.Duration {
	k := guardKey{browserID: browserID, action: action}
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	var elapsed time.Duration
	if st := g.states[k]; st.Phase == domain.PhaseInFlight {
		elapsed = now.Sub(st.Since)
	}
	g.states[k] = domain.ActionState{Phase: domain.PhaseSettled, Since: now}
	return elapsed
}

// State returns the current phase of a pair. Unknown pairs are Idle.
func (g *ActionGuard) State(browserID string, action domain.Action) domain.ActionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.states[guardKey{browserID: browserID, action: action}]
}

// InFlight returns the number of pairs currently InFlight.
func (g *ActionGuard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, st := range g.states {
		if st.Phase == domain.PhaseInFlight {
			n++
		}
	}
	return n
}

// Prune forgets pairs that settled more than maxAge ago, returning them to
// Idle. InFlight pairs are never pruned.
func (g *ActionGuard) Prune(maxAge time.Duration) int {
	cutoff := g.clock.Now().Add(-maxAge)

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for k, st := range g.states {
		if st.Phase == domain.PhaseSettled && st.Since.Before(cutoff) {
			delete(g.states, k)
			removed++
		}
	}
	return removed
}
