// Package loupe is a client for a remote e-commerce search service. It lets
// a caller assemble a structured query (free text, filters, aggregations,
// sort, paging, scoring strategy) without knowledge of the engine's native
// query language, and reconstructs a heterogeneous, rank-ordered result set
// plus computed aggregations from the engine's wire response.
package loupe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/loupe-cloud/loupe/internal/config"
	"github.com/loupe-cloud/loupe/internal/logger"
	"github.com/loupe-cloud/loupe/internal/transport"
)

const defaultHTTPTimeout = 10 * time.Second

// Client is the loupe SDK entry point.
type Client struct {
	doer  transport.Doer
	cache *transport.Cache
	obs   *observer
}

// New creates a loupe Client. An endpoint is required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.endpoint == "" {
		return nil, ErrEndpointRequired
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		timeout := cfg.timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var doer transport.Doer = transport.NewHTTP(cfg.endpoint, cfg.token, httpClient, cfg.logger)

	var cache *transport.Cache
	if len(cfg.cacheAddrs) > 0 {
		var err error
		cache, err = transport.NewCache(doer, transport.CacheConfig{
			Addrs:     cfg.cacheAddrs,
			Password:  cfg.cachePassword,
			TTL:       cfg.cacheTTL,
			KeyPrefix: cfg.cacheKeyPrefix,
		}, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("loupe: create cache: %w", err)
		}
		doer = cache
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{doer: doer, cache: cache, obs: obs}, nil
}

// NewFromConfig creates a Client from a YAML configuration file.
func NewFromConfig(path string, opts ...Option) (*Client, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loupe: %w", err)
	}

	log, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("loupe: %w", err)
	}

	fromFile := []Option{
		WithEndpoint(cfg.Endpoint),
		WithToken(cfg.Token),
		WithTimeout(time.Duration(cfg.HTTP.TimeoutSec) * time.Second),
		WithLogger(log),
	}
	if len(cfg.Cache.Addrs) > 0 {
		fromFile = append(fromFile,
			WithRedisCache(cfg.Cache.Addrs, time.Duration(cfg.Cache.TTLSec)*time.Second),
			WithCachePassword(cfg.Cache.Password),
			WithCacheKeyPrefix(cfg.Cache.KeyPrefix),
		)
	}

	return New(append(fromFile, opts...)...)
}

// Search sends the query to the engine and reconstructs the result.
func (c *Client) Search(ctx context.Context, q *Query) (_ *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	response, err := c.doer.Send(ctx, q.ToMap())
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	result, err := ResultFromMap(response)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return result, nil
}

// Close releases client resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}
