// Package session holds the per-browser client state: a stable browser ID,
// the bearer token and the currently selected batch. The gorilla/sessions
// cookie always carries the browser ID and batch ID. The token lives either
// in the cookie too or in a server-side domain.TokenStore keyed by browser ID.
package session
