package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/applyme/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Key schema:
//   applyme_token:{browserID}   string, bearer token, TTL = session max age

func tokenKey(browserID string) string {
	return domain.TokenKey + ":" + browserID
}

// TokenStore keeps bearer tokens server-side, keyed by browser ID, so the
// session cookie only carries an opaque identifier.
type TokenStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ domain.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates a store whose keys expire after ttl (0 = never).
func NewTokenStore(rdb *goredis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, ttl: ttl}
}

func (s *TokenStore) Get(ctx context.Context, browserID string) (string, error) {
	token, err := s.rdb.Get(ctx, tokenKey(browserID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// Set stores token, replacing any previous one. An empty token clears.
func (s *TokenStore) Set(ctx context.Context, browserID, token string) error {
	if token == "" {
		return s.Clear(ctx, browserID)
	}
	if err := s.rdb.Set(ctx, tokenKey(browserID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context, browserID string) error {
	if err := s.rdb.Del(ctx, tokenKey(browserID)).Err(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Ping is used as a readiness check.
func (s *TokenStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
