package domain

import (
	"errors"
	"fmt"
)

// RequestError is the single error shape surfaced to the user. Status is the
// upstream HTTP status, or 0 for transport and local precondition failures.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string { return e.Message }
func (e *RequestError) Unwrap() error { return e.Err }

// NewHTTPError builds the error for a non-2xx response. detail wins over the
// generic "HTTP <status>" text when the server supplied one.
func NewHTTPError(status int, detail string) *RequestError {
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &RequestError{Status: status, Message: msg}
}

var (
	ErrNoBatchSelected = &RequestError{Message: "Crée un batch d'abord"}
	ErrActionInFlight  = &RequestError{Message: "Action déjà en cours"}
	ErrAPIUnavailable  = &RequestError{Message: "API indisponible"}
)

// StatusMessage turns any error into the text shown in a status region.
func StatusMessage(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}
