package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/acme/bulk-caller/internal/domain"
)

// Redis stores runs as JSON values with a TTL, so any API replica can serve
// progress for a batch running on another.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if prefix == "" {
		prefix = "bulkcaller"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Save overwrites the run and refreshes its TTL.
func (r *Redis) Save(ctx context.Context, run *domain.Run) error {
	value, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("run store: marshal run: %w", err)
	}
	if err := r.client.Set(ctx, r.key(run.ID), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("run store: set: %w", err)
	}
	return nil
}

// Get loads a run.
func (r *Redis) Get(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	value, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("run store: get: %w", err)
	}

	run := new(domain.Run)
	if err := json.Unmarshal(value, run); err != nil {
		return nil, fmt.Errorf("run store: unmarshal run: %w", err)
	}
	return run, nil
}

func (r *Redis) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:run:%s", r.prefix, id.String())
}
