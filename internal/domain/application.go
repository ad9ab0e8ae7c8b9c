package domain

// Application is one row of a batch dashboard. Every field is optional on
// the wire; missing ones decode to "".
type Application struct {
	Company        string `json:"company"`
	JobURL         string `json:"job_url"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	RecruiterEmail string `json:"recruiter_email,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Dashboard is the response of GET /dashboard/{batchId}.
type Dashboard struct {
	Batch        Batch         `json:"batch"`
	Applications []Application `json:"applications"`
}
