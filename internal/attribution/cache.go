// AngelaMos | 2026
// cache.go

package attribution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/carterperez-dev/taxdesk/internal/core"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=cache.go -destination=cache_mock_test.go -package=attribution

// Cache stores lookup results as opaque strings. Get returns an error
// wrapping core.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if core.IsMiss(err) {
		return "", fmt.Errorf("cache get %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

func (c *RedisCache) Set(
	ctx context.Context,
	key, value string,
	ttl time.Duration,
) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

const (
	cacheKeyPrefix = "attribution:code:"
	negativeEntry  = "-"
	lookupTimeout  = 3 * time.Second
)

// CachedFinder fronts a ProfileFinder with a shared cache. Misses are
// cached too, with a shorter TTL, so a flood of bad codes cannot reach the
// database. Concurrent lookups for one code share a single store read and
// a tripped breaker fails fast with core.ErrUnavailable. The shared read
// runs detached from any one caller, so a client that goes away only
// abandons its own wait.
type CachedFinder struct {
	next        ProfileFinder
	cache       Cache
	ttl         time.Duration
	negativeTTL time.Duration
	group       singleflight.Group
	breaker     *gobreaker.CircuitBreaker
}

func NewCachedFinder(next ProfileFinder, cache Cache, ttl time.Duration) *CachedFinder {
	negative := ttl / 5
	if negative < time.Second {
		negative = time.Second
	}

	return &CachedFinder{
		next:        next,
		cache:       cache,
		ttl:         ttl,
		negativeTTL: negative,
		breaker:     newBreaker("attribution-profile-lookup"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, core.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// Ping reports core.ErrUnavailable while the lookup breaker is open.
func (f *CachedFinder) Ping(_ context.Context) error {
	if f.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("profile lookup breaker open: %w", core.ErrUnavailable)
	}
	return nil
}

func cacheKey(code string) string {
	return cacheKeyPrefix + strings.ToLower(code)
}

func (f *CachedFinder) FindByAnyTrackingCode(
	ctx context.Context,
	code string,
) (*Match, error) {
	key := cacheKey(code)

	if m, hit := f.fromCache(ctx, key); hit {
		if m == nil {
			return nil, fmt.Errorf("cached find %q: %w", code, core.ErrNotFound)
		}
		return m, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cached find %q: %w", code, err)
	}

	ch := f.group.DoChan(key, func() (any, error) {
		return f.load(context.WithoutCancel(ctx), key, code)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("cached find %q: %w", code, ctx.Err())
	}

	if res.Err != nil {
		if errors.Is(res.Err, gobreaker.ErrOpenState) ||
			errors.Is(res.Err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("cached find %q: %w: %w", code, core.ErrUnavailable, res.Err)
		}
		return nil, fmt.Errorf("cached find %q: %w", code, res.Err)
	}

	m, _ := res.Val.(*Match)
	if m == nil {
		return nil, fmt.Errorf("cached find %q: %w", code, core.ErrNotFound)
	}
	return m, nil
}

// load reads the store through the breaker and caches the answer. ctx must
// not carry a caller's cancellation.
func (f *CachedFinder) load(ctx context.Context, key, code string) (*Match, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	v, err := f.breaker.Execute(func() (any, error) {
		m, err := f.next.FindByAnyTrackingCode(ctx, code)
		if errors.Is(err, core.ErrNotFound) {
			return (*Match)(nil), nil
		}
		return m, err
	})
	if err != nil {
		return nil, err
	}

	m, _ := v.(*Match)
	f.store(ctx, key, m)
	return m, nil
}

func (f *CachedFinder) fromCache(ctx context.Context, key string) (*Match, bool) {
	if f.cache == nil {
		return nil, false
	}

	raw, err := f.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "attribution cache read failed",
				"key", key,
				"error", err,
			)
		}
		return nil, false
	}

	if raw == negativeEntry {
		return nil, true
	}

	var m Match
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		slog.WarnContext(ctx, "attribution cache entry corrupt",
			"key", key,
			"error", err,
		)
		return nil, false
	}

	return &m, true
}

func (f *CachedFinder) store(ctx context.Context, key string, m *Match) {
	if f.cache == nil {
		return
	}

	value, ttl := negativeEntry, f.negativeTTL
	if m != nil {
		data, err := json.Marshal(m)
		if err != nil {
			return
		}
		value, ttl = string(data), f.ttl
	}

	if err := f.cache.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "attribution cache write failed",
			"key", key,
			"error", err,
		)
	}
}
