package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// flightTimeout bounds a coalesced upstream lookup, which no longer
// follows any single caller's context.
const flightTimeout = 30 * time.Second

// CachedLookup memoizes travel estimates in redis and coalesces identical
// in-flight requests. Cache failures are logged and never fail a lookup.
type CachedLookup struct {
	next  Lookup
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
	log   *zap.Logger
}

func NewCachedLookup(next Lookup, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedLookup {
	return &CachedLookup{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (l *CachedLookup) ResolveAddress(ctx context.Context, postcode string) (Address, error) {
	return l.next.ResolveAddress(ctx, postcode)
}

func (l *CachedLookup) ComputeTravel(ctx context.Context, origin, dest Coordinates) (Travel, error) {
	key := travelKey(origin, dest)

	if t, ok := l.get(ctx, key); ok {
		return t, nil
	}

	// The flight is shared, so one caller giving up must not cancel it for
	// the others still waiting on the same key.
	ch := l.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		t, err := l.next.ComputeTravel(fctx, origin, dest)
		if err != nil {
			return Travel{}, err
		}
		l.set(fctx, key, t)
		return t, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Travel{}, res.Err
		}
		return res.Val.(Travel), nil
	case <-ctx.Done():
		return Travel{}, upstreamErr(ctx.Err())
	}
}

func (l *CachedLookup) get(ctx context.Context, key string) (Travel, bool) {
	raw, err := l.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.log.Warn("travel cache read failed", zap.String("key", key), zap.Error(err))
		}
		return Travel{}, false
	}

	var t Travel
	if err := json.Unmarshal(raw, &t); err != nil || t.DurationMin < 1 {
		l.log.Warn("discarding corrupt travel cache entry", zap.String("key", key))
		return Travel{}, false
	}
	return t, true
}

func (l *CachedLookup) set(ctx context.Context, key string, t Travel) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := l.rdb.Set(ctx, key, raw, l.ttl).Err(); err != nil {
		l.log.Warn("travel cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// travelKey rounds to five decimals (about one meter).
func travelKey(origin, dest Coordinates) string {
	return fmt.Sprintf("travel:v1:%.5f,%.5f:%.5f,%.5f",
		origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude)
}

var _ Lookup = (*CachedLookup)(nil)
