package zoneio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anystubbs/zone-picker/internal/model"
)

// RedisSource loads zone catalogs published to Redis by an upstream
// system. Values are GeoJSON FeatureCollection documents.
type RedisSource struct {
	rdb *redis.Client
}

type RedisOption func(*redis.Options)

func WithDialTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func NewRedisSource(ctx context.Context, addr string, opts ...RedisOption) (*RedisSource, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	ro := &redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	for _, f := range opts {
		f(ro)
	}
	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSource{rdb: rdb}, nil
}

// Load fetches and parses the catalog stored at key.
func (s *RedisSource) Load(ctx context.Context, key string) ([]*model.Zone, error) {
	doc, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("no zone catalog at key %q", key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %q: %w", key, err)
	}
	return FromGeoJSON(strings.NewReader(doc))
}

func (s *RedisSource) Close() error {
	return s.rdb.Close()
}
