package loupe

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures client construction.
type Option func(*clientConfig)

type clientConfig struct {
	endpoint       string
	token          string
	httpClient     *http.Client
	timeout        time.Duration
	logger         *zap.Logger
	metricsReg     prometheus.Registerer
	cacheAddrs     []string
	cachePassword  string
	cacheTTL       time.Duration
	cacheKeyPrefix string
}

// WithEndpoint sets the search engine base URL. Required.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout of the default HTTP client. Ignored
// when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithLogger attaches a zap logger to the client.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithMetrics registers client operation metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.metricsReg = reg
	}
}

// WithRedisCache enables the Redis response cache.
func WithRedisCache(addrs []string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cacheTTL = ttl
	}
}

// WithCachePassword sets the Redis cache password.
func WithCachePassword(password string) Option {
	return func(c *clientConfig) {
		c.cachePassword = password
	}
}

// WithCacheKeyPrefix overrides the cache key prefix (default "loupe:").
func WithCacheKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.cacheKeyPrefix = prefix
	}
}
