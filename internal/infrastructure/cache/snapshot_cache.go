// Package cache implements a Redis read-through cache in front of the
// RuntimeGraph snapshot store, grounded on the teacher's
// internal/infrastructure/cache/redis.go (client wiring, JSON
// Set/Get-by-bytes shape) and cached_repository.go (the
// wrap-a-repository-with-invalidate-on-write pattern), narrowed to the one
// aggregate a scheduler process re-reads on every hot path: the most
// recent RuntimeGraph for a graph ID.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nodeshop/dataflow/internal/graph"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
	"github.com/nodeshop/dataflow/internal/plan"
)

// SnapshotStore is the persistence-layer dependency SnapshotCache wraps —
// satisfied by postgres.SnapshotRepository.
type SnapshotStore interface {
	Save(ctx context.Context, graphID graph.ID, rt *plan.RuntimeGraph) error
	Load(ctx context.Context, graphID graph.ID) (*plan.RuntimeGraph, bool, error)
}

// NewRedisClient opens a go-redis client against addr and pings it once,
// the same connectivity check the teacher's NewRedisCache performs.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, pkgerrors.Internal("failed to connect to redis", err)
	}
	return client, nil
}

// SnapshotCache wraps a SnapshotStore with a Redis read-through layer keyed
// by graph ID, so a hot graph's repeated prev-lookups during replanning
// avoid a Postgres round trip. Writes go to Postgres first, then refresh
// the cache entry — a cache miss always falls through to the store rather
// than ever being treated as "no snapshot exists".
type SnapshotCache struct {
	store  SnapshotStore
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache wraps store with client, expiring cached entries after
// ttl (zero uses a 10-minute default, matching the config package).
func NewSnapshotCache(store SnapshotStore, client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SnapshotCache{store: store, client: client, ttl: ttl}
}

func cacheKey(graphID graph.ID) string {
	return "dataflow:snapshot:" + graphID.String()
}

// Load returns the cached snapshot for graphID if present and unexpired;
// otherwise it loads from the store and repopulates the cache.
func (c *SnapshotCache) Load(ctx context.Context, graphID graph.ID) (*plan.RuntimeGraph, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(graphID)).Bytes()
	if err == nil {
		rt, decodeErr := plan.SnapshotFromJSON(data)
		if decodeErr == nil {
			return rt, true, nil
		}
		// A corrupt cache entry falls through to the store rather than
		// failing the whole lookup.
	} else if !errors.Is(err, redis.Nil) {
		// Redis itself being unreachable degrades to the store, not to a
		// hard failure — the cache is an optimization, not a dependency.
	}

	rt, ok, err := c.store.Load(ctx, graphID)
	if err != nil || !ok {
		return rt, ok, err
	}

	if doc, encodeErr := rt.ToJSON(); encodeErr == nil {
		_ = c.client.Set(ctx, cacheKey(graphID), doc, c.ttl).Err()
	}
	return rt, true, nil
}

// Save writes rt to the underlying store, then refreshes (or clears, on a
// store failure) the cache entry.
func (c *SnapshotCache) Save(ctx context.Context, graphID graph.ID, rt *plan.RuntimeGraph) error {
	if err := c.store.Save(ctx, graphID, rt); err != nil {
		_ = c.client.Del(ctx, cacheKey(graphID)).Err()
		return err
	}

	doc, err := rt.ToJSON()
	if err != nil {
		return nil
	}
	_ = c.client.Set(ctx, cacheKey(graphID), doc, c.ttl).Err()
	return nil
}

// Close releases the underlying Redis client.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
