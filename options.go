package vecsearch

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsearch/internal/transport/memory"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverHTTP   = "http"
	driverRedis  = "redis"
	driverValkey = "valkey"
	driverMemory = "memory"
)

type clientConfig struct {
	driver   string
	password string
	dialer   Dialer

	apiKey     string
	httpClient *http.Client

	engine *memory.Engine

	timeout         time.Duration
	schemaCacheSize int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithHTTP talks to a vecsearchd server over HTTP. This is the default.
func WithHTTP() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverHTTP
	})
}

// WithAPIKey sends key as a Bearer token on every HTTP request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the http.Client used by the HTTP transport.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRedis stores tables directly in Redis 8+ with the search module.
func WithRedis(password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.password = password
	})
}

// WithValkey stores tables directly in Valkey with valkey-search.
func WithValkey(password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverValkey
		c.password = password
	})
}

// WithInMemory runs an in-process engine private to this client.
// The endpoint passed to Connect is only validated.
func WithInMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
	})
}

// WithEngine runs on a shared in-process engine, so several clients see the
// same tables.
func WithEngine(e *memory.Engine) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.engine = e
	})
}

// WithDialer overrides transport selection entirely.
func WithDialer(d Dialer) Option {
	return optionFunc(func(c *clientConfig) {
		c.dialer = d
	})
}

// WithTimeout bounds every call whose context has no deadline.
// Default: 30s. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithSchemaCacheSize sets how many table schemas are cached for dimension
// checks. Default: 256.
func WithSchemaCacheSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.schemaCacheSize = n
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
