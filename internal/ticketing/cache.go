package ticketing

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "ticketing:"

// CachedClient is a read-through cache over an API.  Reads are cached in
// Redis with per call TTLs; concurrent misses for one key share a single
// origin call.  Redis failures fall back to the origin.  Purchases always go
// to the origin and evict the event and availability entries.
type CachedClient struct {
	origin          API
	rdb             *redis.Client
	log             *zap.Logger
	eventsTTL       time.Duration
	availabilityTTL time.Duration
	group           singleflight.Group
}

func NewCachedClient(origin API, rdb *redis.Client, eventsTTL, availabilityTTL time.Duration, log *zap.Logger) *CachedClient {
	return &CachedClient{
		origin:          origin,
		rdb:             rdb,
		log:             log,
		eventsTTL:       eventsTTL,
		availabilityTTL: availabilityTTL,
	}
}

func eventsKey(tenantRef string) string { return keyPrefix + "events:" + tenantRef }
func eventKey(id string) string         { return keyPrefix + "event:" + id }
func availabilityKey(id string) string  { return keyPrefix + "availability:" + id }

func (c *CachedClient) ListEvents(ctx context.Context, tenantRef string) ([]Event, error) {
	return readThrough(ctx, c, eventsKey(tenantRef), c.eventsTTL, func(ctx context.Context) ([]Event, error) {
		return c.origin.ListEvents(ctx, tenantRef)
	})
}

func (c *CachedClient) GetEvent(ctx context.Context, id string) (*Event, error) {
	return readThrough(ctx, c, eventKey(id), c.eventsTTL, func(ctx context.Context) (*Event, error) {
		return c.origin.GetEvent(ctx, id)
	})
}

func (c *CachedClient) Availability(ctx context.Context, id string) (*Availability, error) {
	return readThrough(ctx, c, availabilityKey(id), c.availabilityTTL, func(ctx context.Context) (*Availability, error) {
		return c.origin.Availability(ctx, id)
	})
}

func (c *CachedClient) Purchase(ctx context.Context, req PurchaseRequest) (*Purchase, error) {
	p, err := c.origin.Purchase(ctx, req)
	if err != nil {
		return nil, err
	}
	c.Invalidate(ctx, req.EventID)
	return p, nil
}

// Invalidate evicts the cached event and availability of eventID.
func (c *CachedClient) Invalidate(ctx context.Context, eventID string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, eventKey(eventID), availabilityKey(eventID)).Err(); err != nil {
		c.log.Warn("ticketing cache invalidate failed", zap.String("event_id", eventID), zap.Error(err))
	}
}

func readThrough[T any](ctx context.Context, c *CachedClient, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.rdb != nil && ttl > 0 {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v T
			if jerr := json.Unmarshal(raw, &v); jerr == nil {
				return v, nil
			}
			c.log.Warn("ticketing cache entry unreadable", zap.String("key", key))
		case !errors.Is(err, redis.Nil):
			c.log.Warn("ticketing cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	// The shared load outlives any single caller; the origin client timeout
	// bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := load(shared)
		if err != nil {
			return nil, err
		}
		c.store(shared, key, v, ttl)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (c *CachedClient) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.rdb == nil || ttl <= 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		c.log.Warn("ticketing cache write failed", zap.String("key", key), zap.Error(err))
	}
}
