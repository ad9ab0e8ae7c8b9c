package domain

import "strings"

// NoBatch is the text displayed while no batch has been created.
const NoBatch = "(aucun)"

type Batch struct {
	ID       string `json:"id"`
	Status   string `json:"status,omitempty"`
	Field    string `json:"field,omitempty"`
	Location string `json:"location,omitempty"`
	JobType  string `json:"job_type,omitempty"`
}

// BatchRequest is the body of POST /batches.
type BatchRequest struct {
	Field    string `json:"field"`
	Location string `json:"location"`
	JobType  string `json:"job_type"`
}

// HasBatch reports whether id names a real batch rather than the empty or
// "none selected" state.
func HasBatch(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != NoBatch
}
