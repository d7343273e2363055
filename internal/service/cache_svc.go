package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowCacheTTL bounds staleness of the read-heavy chart endpoints; the
// underlying series only grows once per poll cycle, so a short TTL is safe.
const WindowCacheTTL = 60 * time.Second

// CacheService provides a Redis cache-aside layer for the metrics and
// changes window reads.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or
// connection fails, it returns a CacheService with a nil client (cache
// operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetWindow retrieves a cached window response. Returns nil when not
// cached or the cache is disabled.
func (c *CacheService) GetWindow(ctx context.Context, kind, videoID, rng string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, windowKey(kind, videoID, rng)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetWindow stores a window response under the short TTL.
func (c *CacheService) SetWindow(ctx context.Context, kind, videoID, rng string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, windowKey(kind, videoID, rng), b, WindowCacheTTL).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func windowKey(kind, videoID, rng string) string {
	return fmt.Sprintf("window:%s:%s:%s", kind, videoID, rng)
}
