package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"communitycart/market/internal/models"
)

const (
	listingsSnapshotKey   = "snapshot:group_buys"
	ordersSnapshotKey     = "snapshot:orders"
	snapshotGenerationKey = "snapshot:generation"
)

// ISnapshotCache stores the raw listing and order collections between loads.
// It never stores evaluated results; those are recomputed on every request.
//
// Callers read Generation before loading from the database and pass it to
// the setter. Invalidate bumps the generation, so a snapshot loaded before
// a write is dropped instead of overwriting the invalidation.
type ISnapshotCache interface {
	GetListings(ctx context.Context) ([]*models.Listing, bool, error)
	SetListings(ctx context.Context, generation int64, listings []*models.Listing) error
	GetOrders(ctx context.Context) ([]*models.Order, bool, error)
	SetOrders(ctx context.Context, generation int64, orders []*models.Order) error
	Generation(ctx context.Context) (int64, error)
	Invalidate(ctx context.Context) error
}

var errStaleSnapshot = errors.New("snapshot generation changed")

type redisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache returns a Redis-backed cache. A ttl of zero keeps entries
// until invalidated.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) ISnapshotCache {
	return &redisSnapshotCache{client: client, ttl: ttl}
}

func (c *redisSnapshotCache) GetListings(ctx context.Context) ([]*models.Listing, bool, error) {
	var listings []*models.Listing
	ok, err := c.get(ctx, listingsSnapshotKey, &listings)
	return listings, ok, err
}

func (c *redisSnapshotCache) SetListings(ctx context.Context, generation int64, listings []*models.Listing) error {
	return c.set(ctx, listingsSnapshotKey, generation, listings)
}

func (c *redisSnapshotCache) GetOrders(ctx context.Context) ([]*models.Order, bool, error) {
	var orders []*models.Order
	ok, err := c.get(ctx, ordersSnapshotKey, &orders)
	return orders, ok, err
}

func (c *redisSnapshotCache) SetOrders(ctx context.Context, generation int64, orders []*models.Order) error {
	return c.set(ctx, ordersSnapshotKey, generation, orders)
}

// Generation returns the current invalidation counter, zero before the first
// invalidation.
func (c *redisSnapshotCache) Generation(ctx context.Context) (int64, error) {
	return readGeneration(ctx, c.client)
}

func (c *redisSnapshotCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, snapshotGenerationKey)
		pipe.Del(ctx, listingsSnapshotKey, ordersSnapshotKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd stringGetter) (int64, error) {
	gen, err := cmd.Get(ctx, snapshotGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot generation: %w", err)
	}
	return gen, nil
}

func (c *redisSnapshotCache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next load.
		return false, nil
	}
	return true, nil
}

// set writes v under key only while the generation still equals generation.
// A stale snapshot is silently discarded.
func (c *redisSnapshotCache) set(ctx context.Context, key string, generation int64, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for %s: %w", key, err)
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, snapshotGenerationKey)
	if errors.Is(err, errStaleSnapshot) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}
