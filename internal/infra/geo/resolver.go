package geo

import (
	"context"
	"errors"
	"time"

	"arcana-app/internal/domain/regions"
	"arcana-app/internal/pkg/logger"
	"arcana-app/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	cachePrefix = "region:ip:"
	cacheTTL    = 24 * time.Hour
)

// Resolver turns a caller IP into a region id. It never fails: every error
// path yields the default region.
type Resolver struct {
	lookup        Lookup
	cache         *redis.Client
	breaker       *gobreaker.CircuitBreaker[string]
	defaultRegion string
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

type Option func(*Resolver)

func WithCache(rdb *redis.Client) Option {
	return func(r *Resolver) { r.cache = rdb }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func WithDefaultRegion(id string) Option {
	return func(r *Resolver) {
		if id != "" {
			r.defaultRegion = id
		}
	}
}

func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:        lookup,
		defaultRegion: regions.RegionBR,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "geo-lookup",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return r
}

func (r *Resolver) DefaultRegion() string {
	return r.defaultRegion
}

func (r *Resolver) Resolve(ctx context.Context, ip string) string {
	if regions.IsLocalAddress(ip) {
		r.metrics.RecordGeoLookup("local")
		return r.defaultRegion
	}

	if region, ok := r.cached(ctx, ip); ok {
		r.metrics.RecordGeoLookup("cache_hit")
		return region
	}

	country, err := r.breaker.Execute(func() (string, error) {
		return r.lookup.Country(ctx, ip)
	})
	if err != nil {
		result := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "breaker_open"
		}
		r.metrics.RecordGeoLookup(result)
		r.logger.Warn("geo lookup failed, using default region",
			zap.String("ip", ip),
			zap.String("default_region", r.defaultRegion),
			zap.Error(err),
		)
		return r.defaultRegion
	}

	region := regions.ForCountry(country, "")
	if region == "" {
		r.metrics.RecordGeoLookup("unmapped")
		r.logger.Debug("country has no region mapping",
			zap.String("country", country),
		)
		region = r.defaultRegion
	} else {
		r.metrics.RecordGeoLookup("resolved")
	}

	r.store(ctx, ip, region)
	return region
}

func (r *Resolver) cached(ctx context.Context, ip string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	v, err := r.cache.Get(ctx, cachePrefix+ip).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Debug("region cache read failed", zap.Error(err))
		}
		return "", false
	}
	return v, v != ""
}

func (r *Resolver) store(ctx context.Context, ip, region string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, cachePrefix+ip, region, cacheTTL).Err(); err != nil {
		r.logger.Debug("region cache write failed", zap.Error(err))
	}
}
