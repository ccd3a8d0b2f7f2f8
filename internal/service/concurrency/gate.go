// Package concurrency keeps batches from overlapping so calls always go out
// one at a time, even with several API replicas.
package concurrency

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Gate admits one batch at a time.
type Gate interface {
	// TryAcquire takes the gate for owner. It returns false when another
	// batch holds it.
	TryAcquire(ctx context.Context, owner string) (bool, error)
	// Refresh extends a held lease.
	Refresh(ctx context.Context, owner string) error
	// Release frees the gate if owner still holds it.
	Release(ctx context.Context, owner string) error
}

// LocalGate is a process-local Gate.
type LocalGate struct {
	mu    sync.Mutex
	owner string
}

// NewLocalGate creates an open gate.
func NewLocalGate() *LocalGate {
	return &LocalGate{}
}

func (g *LocalGate) TryAcquire(_ context.Context, owner string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner != "" {
		return false, nil
	}
	g.owner = owner
	return true, nil
}

func (g *LocalGate) Refresh(context.Context, string) error {
	return nil
}

func (g *LocalGate) Release(_ context.Context, owner string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner == owner {
		g.owner = ""
	}
	return nil
}

var (
	acquireScript = redis.NewScript(`
local key = KEYS[1]
local owner = ARGV[1]
local ttl = tonumber(ARGV[2])
if redis.call('SET', key, owner, 'NX', 'PX', ttl) then
  return 1
end
return 0
`)

	refreshScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('GET', key) == ARGV[1] then
  return redis.call('PEXPIRE', key, tonumber(ARGV[2]))
end
return 0
`)

	releaseScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('GET', key) == ARGV[1] then
  return redis.call('DEL', key)
end
return 0
`)
)

// RedisGate is a Gate shared through Redis. The lease expires after ttl so a
// crashed replica cannot hold it forever; the holder refreshes it while it
// dispatches.
type RedisGate struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisGate constructs a Redis-backed gate.
func NewRedisGate(client *redis.Client, prefix string, ttl time.Duration) *RedisGate {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "bulkcaller"
	}
	return &RedisGate{client: client, key: prefix + ":batch:active", ttl: ttl}
}

// TTL returns the lease duration.
func (g *RedisGate) TTL() time.Duration {
	return g.ttl
}

func (g *RedisGate) TryAcquire(ctx context.Context, owner string) (bool, error) {
	res, err := acquireScript.Run(ctx, g.client, []string{g.key}, owner, g.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("batch gate acquire: %w", err)
	}
	return res == 1, nil
}

func (g *RedisGate) Refresh(ctx context.Context, owner string) error {
	if _, err := refreshScript.Run(ctx, g.client, []string{g.key}, owner, g.ttl.Milliseconds()).Int(); err != nil {
		return fmt.Errorf("batch gate refresh: %w", err)
	}
	return nil
}

func (g *RedisGate) Release(ctx context.Context, owner string) error {
	if _, err := releaseScript.Run(ctx, g.client, []string{g.key}, owner).Int(); err != nil {
		return fmt.Errorf("batch gate release: %w", err)
	}
	return nil
}
