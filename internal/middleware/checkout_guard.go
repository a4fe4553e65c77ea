package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionGuard tracks recent guest checkout submissions per email so a
// double-click or an impatient retry does not create two orders. Forget
// releases a reservation when the checkout it guarded failed, so a
// corrected retry is not blocked for the full TTL.
type SubmissionGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type redisSubmissionGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (g *redisSubmissionGuard) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+":"+strings.ToLower(key), "1", g.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => key exists => duplicate
	return !ok, nil
}

func (g *redisSubmissionGuard) Forget(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+":"+strings.ToLower(key)).Err()
}

type memorySubmissionGuard struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
}

func newMemorySubmissionGuard(ttl time.Duration) *memorySubmissionGuard {
	now := time.Now()
	return &memorySubmissionGuard{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
	}
}

func (g *memorySubmissionGuard) Seen(_ context.Context, key string) (bool, error) {
	key = strings.ToLower(key)
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if exp, ok := g.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	g.seen[key] = now.Add(g.ttl)
	if now.After(g.nextGC) {
		for k, exp := range g.seen {
			if exp.Before(now) {
				delete(g.seen, k)
			}
		}
		g.nextGC = now.Add(g.ttl)
	}

	return false, nil
}

func (g *memorySubmissionGuard) Forget(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, strings.ToLower(key))
	return nil
}

// NewSubmissionGuard builds a Redis guard and falls back to in-memory when
// Redis is not reachable.
func NewSubmissionGuard(addr, pass string, db int, ttl time.Duration) (SubmissionGuard, error) {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if addr == "" {
		return newMemorySubmissionGuard(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemorySubmissionGuard(ttl), err
	}

	return &redisSubmissionGuard{client: client, prefix: "checkout", ttl: ttl}, nil
}
