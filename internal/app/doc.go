// Package app provides the application service layer.
//
// Runs the user actions (signup, login, logout, create batch, refresh) against
// the remote API and turns each into a domain.Outcome for the page. Sits
// between HTTP handlers and the API client. Every action passes through the
// per-browser ActionGuard so a double click never issues two calls.
package app
