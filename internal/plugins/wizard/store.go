package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/mailroom/internal/apperror"
)

// draftKeyPrefix namespaces drafts by operator: wizard:<operator>:<id>.
const draftKeyPrefix = "wizard:"

// DraftStore persists drafts between requests.
type DraftStore interface {
	Save(ctx context.Context, d *Draft) error
	Load(ctx context.Context, operator, id string) (*Draft, error)
	Delete(ctx context.Context, operator, id string) error
}

type redisDraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewDraftStore stores drafts in Redis. Each save refreshes the TTL.
func NewDraftStore(rdb *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{redis: rdb, ttl: ttl}
}

func draftKey(operator, id string) string {
	return draftKeyPrefix + operator + ":" + id
}

func (s *redisDraftStore) Save(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling draft: %w", err)
	}
	if err := s.redis.Set(ctx, draftKey(d.Operator, d.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Load(ctx context.Context, operator, id string) (*Draft, error) {
	data, err := s.redis.Get(ctx, draftKey(operator, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewNotFound("This draft has expired. Please start a new campaign.")
	}
	if err != nil {
		return nil, fmt.Errorf("reading draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshaling draft: %w", err)
	}
	return &d, nil
}

func (s *redisDraftStore) Delete(ctx context.Context, operator, id string) error {
	if err := s.redis.Del(ctx, draftKey(operator, id)).Err(); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}
