package domain

import "context"

// TokenKey is the fixed name the bearer token is persisted under.
const TokenKey = "applyme_token"

// TokenStore persists at most one bearer token per browser. Get returns ""
// when no token is held. No expiry or format checks are performed.
type TokenStore interface {
	Get(ctx context.Context, browserID string) (string, error)
	Set(ctx context.Context, browserID, token string) error
	Clear(ctx context.Context, browserID string) error
}
