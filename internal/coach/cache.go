package coach

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/gym-management/pkg/redis"
)

// Cache is the subset of the redis client the coach lookup needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Key(parts ...string) string
}

// CachedLookup is a read-through cache in front of another Lookup. Cache
// failures are logged and fall back to the underlying lookup.
type CachedLookup struct {
	next   Lookup
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedLookup(next Lookup, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedLookup{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (l *CachedLookup) key(brandID int64, employeeNumber string) string {
	return l.cache.Key("coach", strconv.FormatInt(brandID, 10), employeeNumber)
}

func (l *CachedLookup) FindByEmployeeNumber(ctx context.Context, brandID int64, employeeNumber string) (*Coach, error) {
	key := l.key(brandID, employeeNumber)

	raw, err := l.cache.Get(ctx, key)
	switch {
	case err == nil:
		var c Coach
		if jsonErr := json.Unmarshal([]byte(raw), &c); jsonErr == nil {
			return &c, nil
		}
		l.logger.WarnContext(ctx, "discarding undecodable coach cache entry", "key", key)
	case !errors.Is(err, redis.ErrCacheMiss):
		l.logger.WarnContext(ctx, "coach cache read failed", "key", key, "error", err)
	}

	c, err := l.next.FindByEmployeeNumber(ctx, brandID, employeeNumber)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(c)
	if err == nil {
		err = l.cache.Set(ctx, key, payload, l.ttl)
	}
	if err != nil {
		l.logger.WarnContext(ctx, "coach cache write failed", "key", key, "error", err)
	}
	return c, nil
}

// Invalidate drops the cached entry so role or specialty changes apply on
// the next request.
func (l *CachedLookup) Invalidate(ctx context.Context, brandID int64, employeeNumber string) error {
	return l.cache.Del(ctx, l.key(brandID, employeeNumber))
}
