package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Cache decorates a Doer with a Redis response cache keyed by the query wire
// map. Cache failures degrade to pass-through; they never fail the query.
type Cache struct {
	next      Doer
	client    rueidis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

var _ Doer = (*Cache)(nil)

// CacheConfig holds connection parameters for the response cache.
type CacheConfig struct {
	Addrs     []string
	Password  string
	TTL       time.Duration
	KeyPrefix string
}

// NewCache creates a caching decorator around next.
func NewCache(next Doer, cfg CacheConfig, logger *zap.Logger) (*Cache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("cache addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache client: %w", err)
	}
	return newCacheWithClient(next, client, cfg, logger), nil
}

// newCacheWithClient wires a cache around an existing client. Split out for
// tests.
func newCacheWithClient(next Doer, client rueidis.Client, cfg CacheConfig, logger *zap.Logger) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "loupe:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		next:      next,
		client:    client,
		ttl:       ttl,
		keyPrefix: prefix,
		logger:    logger,
	}
}

// Send returns a cached response when one exists for the query, delegating
// to the wrapped transport otherwise and storing its answer.
func (c *Cache) Send(ctx context.Context, body map[string]any) (map[string]any, error) {
	key, err := c.key(body)
	if err != nil {
		return c.next.Send(ctx, body)
	}

	getCmd := c.client.B().Get().Key(key).Build()
	data, err := c.client.Do(ctx, getCmd).AsBytes()
	if err == nil {
		var out map[string]any
		if jsonErr := json.Unmarshal(data, &out); jsonErr == nil {
			c.logger.Debug("cache hit", zap.String("key", key))
			return out, nil
		}
		c.logger.Warn("cache entry corrupt, refetching", zap.String("key", key))
	} else if !rueidis.IsRedisNil(err) {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	out, err := c.next.Send(ctx, body)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(out); jsonErr == nil {
		setCmd := c.client.B().Set().Key(key).Value(string(encoded)).Ex(c.ttl).Build()
		if setErr := c.client.Do(ctx, setCmd).Error(); setErr != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return out, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() {
	c.client.Close()
}

// key derives the cache key from the canonical JSON of the query wire map.
// encoding/json sorts map keys, so equal queries hash identically.
func (c *Cache) key(body map[string]any) (string, error) {
	canonical, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return c.keyPrefix + "query:" + hex.EncodeToString(sum[:]), nil
}
