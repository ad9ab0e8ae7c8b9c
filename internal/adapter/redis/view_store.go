package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/applyme/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Key schema:
//   applyme_view:{browserID}    JSON domain.View, TTL = session max age

func viewKey(browserID string) string {
	return domain.ViewKey + ":" + browserID
}

// ViewStore keeps each browser's page state (status texts and last rows) in
// Redis so every replica renders the same page.
type ViewStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ domain.ViewStore = (*ViewStore)(nil)

// NewViewStore creates a store whose keys expire after ttl (0 = never).
func NewViewStore(rdb *goredis.Client, ttl time.Duration) *ViewStore {
	return &ViewStore{rdb: rdb, ttl: ttl}
}

func (s *ViewStore) GetView(ctx context.Context, browserID string) (domain.View, error) {
	raw, err := s.rdb.Get(ctx, viewKey(browserID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.View{}, nil
	}
	if err != nil {
		return domain.View{}, fmt.Errorf("failed to get view: %w", err)
	}

	var v domain.View
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.View{}, fmt.Errorf("failed to decode view: %w", err)
	}
	return v, nil
}

func (s *ViewStore) SetView(ctx context.Context, browserID string, v domain.View) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	if err := s.rdb.Set(ctx, viewKey(browserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set view: %w", err)
	}
	return nil
}
