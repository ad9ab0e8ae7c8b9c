package domain

import (
	"context"
	"html/template"
)

// ViewKey prefixes the server-side page state of a browser.
const ViewKey = "applyme_view"

// View is what the page keeps showing between actions: the last text of
// each status region, the last batch details and the last rendered rows.
// Nil Rows means no dashboard has been fetched yet.
type View struct {
	AuthStatus  string          `json:"authStatus,omitempty"`
	BatchStatus string          `json:"batchStatus,omitempty"`
	Batch       *Batch          `json:"batch,omitempty"`
	Rows        []template.HTML `json:"rows,omitempty"`
}

// Apply returns v updated by one action. Auth actions only touch the auth
// status, batch actions only the batch status. Rows change only when a
// dashboard fetch produced them.
func (v View) Apply(out Outcome) View {
	switch out.Action {
	case ActionSignup, ActionLogin, ActionLogout:
		v.AuthStatus = out.AuthStatus
	case ActionCreateBatch, ActionRefresh:
		v.BatchStatus = out.BatchStatus
	}
	if out.Batch != nil {
		b := *out.Batch
		v.Batch = &b
	}
	if out.Rows != nil {
		v.Rows = out.Rows
	}
	return v
}

// ViewStore persists one View per browser. Get returns the zero View when
// nothing is stored.
type ViewStore interface {
	GetView(ctx context.Context, browserID string) (View, error)
	SetView(ctx context.Context, browserID string, v View) error
}
