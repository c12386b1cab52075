// Package cache keeps the latest portfolio snapshot in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"claim_intake_backend/internal/metrics/calculator"
)

// PortfolioKey holds the JSON-encoded portfolio snapshot.
const PortfolioKey = "metrics:portfolio"

// GenerationKey counts invalidations of the snapshot.
const GenerationKey = "metrics:portfolio:gen"

// ErrStale reports a snapshot computed before the latest invalidation.
var ErrStale = errors.New("portfolio snapshot is stale")

// DefaultTTL bounds how long a snapshot may be served without a write event.
const DefaultTTL = 5 * time.Minute

// Cache stores portfolio snapshots.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient parses a redis:// or rediss:// URL into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// New creates a cache on an existing client.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached snapshot. ok is false on a miss.
func (c *Cache) Get(ctx context.Context) (calculator.Portfolio, bool, error) {
	data, err := c.rdb.Get(ctx, PortfolioKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return calculator.Portfolio{}, false, nil
	}
	if err != nil {
		return calculator.Portfolio{}, false, fmt.Errorf("get portfolio snapshot: %w", err)
	}

	var p calculator.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return calculator.Portfolio{}, false, fmt.Errorf("decode portfolio snapshot: %w", err)
	}
	return p, true, nil
}

// Generation returns the invalidation counter. A snapshot computed from data
// loaded after reading generation g may only be stored while the counter is g.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get portfolio generation: %w", err)
	}
	return gen, nil
}

// Set stores a snapshot computed at generation gen. It returns ErrStale when
// an invalidation happened since.
func (c *Cache) Set(ctx context.Context, gen int64, p calculator.Portfolio) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode portfolio snapshot: %w", err)
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, GenerationKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, PortfolioKey, data, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	if err != nil && !errors.Is(err, ErrStale) {
		return fmt.Errorf("set portfolio snapshot: %w", err)
	}
	return err
}

// Invalidate drops the snapshot and advances the generation.
func (c *Cache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, PortfolioKey)
		pipe.Incr(ctx, GenerationKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate portfolio snapshot: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
