package domain

import "html/template"

// Outcome is what one user action leaves on screen: the status text of its
// group and, for batch and refresh actions, the batch context and rows.
type Outcome struct {
	Action      Action          `json:"action"`
	AuthStatus  string          `json:"authStatus,omitempty"`
	BatchStatus string          `json:"batchStatus,omitempty"`
	BatchID     string          `json:"batchId,omitempty"`
	Batch       *Batch          `json:"batch,omitempty"`
	Rows        []template.HTML `json:"rows,omitempty"`
	Count       int             `json:"count"`
	Err         error           `json:"-"`

	// Applications are the rows as received, including the fields the
	// table does not show (recruiter_email, error).
	Applications []Application `json:"applications,omitempty"`
}

// Failed reports whether the action ended with an error.
func (o Outcome) Failed() bool { return o.Err != nil }
