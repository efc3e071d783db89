// Package redis serves the vecsearch Transport from Redis 8 or Valkey with
// the search module: tables are metadata hashes, rows are hashes covered by
// one FT index per table.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecsearch/internal/db"
	dbredis "github.com/kailas-cloud/vecsearch/internal/db/redis"
	"github.com/kailas-cloud/vecsearch/internal/domain"
)

// store is the consumer interface for the transport (ISP).
//
//nolint:interfacebloat // tables, rows, and indexes share one keyspace
type store interface {
	Ping(ctx context.Context) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNNMulti(ctx context.Context, qs []*db.KNNQuery) ([]*db.SearchResult, error)
	SearchCount(ctx context.Context, index, prefix string) (int64, error)
	ServerInfo(ctx context.Context, section string) (map[string]string, error)
}

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	TLS      bool
	Valkey   bool
}

// Transport implements the vecsearch Transport on a db store.
type Transport struct {
	store store
	close func()
	now   func() time.Time
}

// Option configures a Transport.
type Option func(*Transport)

// WithClock overrides the clock used to date inserted rows.
func WithClock(now func() time.Time) Option {
	return func(t *Transport) { t.now = now }
}

// New wraps an existing store. Close on the transport is a no-op; the
// caller owns the store.
func New(s store, opts ...Option) *Transport {
	t := &Transport{store: s, close: func() {}, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Dial opens a store for cfg and wraps it. Close releases the connection.
func Dial(_ context.Context, cfg Config, opts ...Option) (*Transport, error) {
	s, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		TLS:      cfg.TLS,
		Valkey:   cfg.Valkey,
	})
	if err != nil {
		return nil, domain.NewStatus(domain.StatusConnectFailed, "connect %v: %v", cfg.Addrs, err)
	}
	t := New(s, opts...)
	t.close = s.Close
	return t, nil
}

// Ping checks the store.
func (t *Transport) Ping(ctx context.Context) error {
	if err := t.store.Ping(ctx); err != nil {
		return domain.NewStatus(domain.StatusConnectFailed, "%v", err)
	}
	return nil
}

// Close releases the store when the transport opened it.
func (t *Transport) Close() error {
	t.close()
	return nil
}

// ServerVersion reports the server version from INFO server.
func (t *Transport) ServerVersion(ctx context.Context) (string, error) {
	info, err := t.store.ServerInfo(ctx, "server")
	if err != nil {
		return "", fmt.Errorf("server info: %w", err)
	}
	if v := info["valkey_version"]; v != "" {
		return "valkey " + v, nil
	}
	if v := info["redis_version"]; v != "" {
		return "redis " + v, nil
	}
	return "", errors.New("server info has no version")
}

// ServerStatus pings the store and reports "OK".
func (t *Transport) ServerStatus(ctx context.Context) (string, error) {
	if err := t.Ping(ctx); err != nil {
		return "", err
	}
	return "OK", nil
}
