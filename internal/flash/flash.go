// Package flash queues one-shot notifications (toasts) for an operator
// session. A handler pushes a notice before redirecting; the next full page
// render pops and shows it.
package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Kind is the visual severity of a notice.
type Kind string

const (
	Success Kind = "success"
	Info    Kind = "info"
	Warning Kind = "warning"
	Error   Kind = "error"
)

// Notice is one queued notification.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

const (
	keyPrefix = "flash:"
	noticeTTL = 5 * time.Minute
)

// Store keeps pending notices in a Redis list per owner.
type Store struct {
	rdb *redis.Client
}

// NewStore creates a flash store.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Push queues a notice for owner (a session id).
func (s *Store) Push(ctx context.Context, owner string, n Notice) error {
	if owner == "" {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notice: %w", err)
	}
	key := keyPrefix + owner
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, noticeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queueing notice: %w", err)
	}
	return nil
}

// Pop returns and clears every queued notice for owner, oldest first.
func (s *Store) Pop(ctx context.Context, owner string) ([]Notice, error) {
	if owner == "" {
		return nil, nil
	}
	key := keyPrefix + owner
	pipe := s.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("reading notices: %w", err)
	}

	raw := rangeCmd.Val()
	notices := make([]Notice, 0, len(raw))
	for _, item := range raw {
		var n Notice
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}
