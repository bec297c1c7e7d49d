// Package cache keeps the category tree snapshot in Redis so storefront
// requests do not reload the whole tree from the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"pitchside/internal/domain"
	"pitchside/internal/metrics"
)

const (
	DefaultTreeKey = "pitchside:tree"
	DefaultTreeTTL = 10 * time.Minute
)

// TreeCache stores a domain.TreeSnapshot as JSON. Redis failures degrade
// to a miss; callers fall back to the store.
type TreeCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type Option func(*TreeCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *TreeCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithKey(key string) Option {
	return func(c *TreeCache) {
		if key != "" {
			c.key = key
		}
	}
}

func NewTreeCache(client *redis.Client, opts ...Option) *TreeCache {
	c := &TreeCache{client: client, key: DefaultTreeKey, ttl: DefaultTreeTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect creates a client and verifies it with a ping.
func Connect(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[cache] redis connected addr=%s", addr)
	return client, nil
}

func (c *TreeCache) Get(ctx context.Context) (domain.TreeSnapshot, bool) {
	var snap domain.TreeSnapshot
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.TreeCache.WithLabelValues("miss").Inc()
		return snap, false
	}
	if err != nil {
		metrics.TreeCache.WithLabelValues("error").Inc()
		log.Printf("[cache] tree get: %v", err)
		return snap, false
	}
	if err := json.Unmarshal(val, &snap); err != nil {
		metrics.TreeCache.WithLabelValues("error").Inc()
		log.Printf("[cache] tree decode: %v", err)
		return snap, false
	}
	metrics.TreeCache.WithLabelValues("hit").Inc()
	return snap, true
}

func (c *TreeCache) Set(ctx context.Context, snap domain.TreeSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[cache] tree encode: %v", err)
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		log.Printf("[cache] tree set: %v", err)
	}
}

// Invalidate drops the snapshot after a tree mutation.
func (c *TreeCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		log.Printf("[cache] tree invalidate: %v", err)
	}
}
