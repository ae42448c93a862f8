package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "geocode:reverse:"

// Cache memoizes reverse lookups in Redis. Redis failures fall through to the
// wrapped Reverser.
type Cache struct {
	next   Reverser
	client *redis.Client
	ttl    time.Duration
}

func NewCache(next Reverser, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{next: next, client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%s%.5f,%.5f", cacheKeyPrefix, lat, lon)
}

func (c *Cache) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	key := cacheKey(lat, lon)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Place
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return &p, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Printf("✗ geocode cache read %s: %v", key, err)
	}

	p, err := c.next.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if b, jerr := json.Marshal(p); jerr == nil {
		if serr := c.client.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			log.Printf("✗ geocode cache write %s: %v", key, serr)
		}
	}
	return p, nil
}
