package domain

import "time"

type Action string

const (
	ActionSignup      Action = "signup"
	ActionLogin       Action = "login"
	ActionLogout      Action = "logout"
	ActionCreateBatch Action = "create_batch"
	ActionRefresh     Action = "refresh"
)

// Phase is the lifecycle of one user action: Idle -> InFlight -> Settled.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseInFlight:
		return "in_flight"
	case PhaseSettled:
		return "settled"
	default:
		return "idle"
	}
}

// ActionState is an immutable snapshot of one action's phase.
type ActionState struct {
	Phase Phase
	Since time.Time
}
