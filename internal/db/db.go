package db

import (
	"context"
	"time"
)

// Store is the database facade used by the redis transport.
//
//nolint:interfacebloat // facade; consumers use the narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	Counter
	IndexManager
	Searcher
	InfoReader
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Counter provides atomic counters.
type Counter interface {
	// IncrBy adds val to key and returns the new value.
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchKNNMulti(ctx context.Context, qs []*KNNQuery) ([]*SearchResult, error)
	// SearchCount counts the documents of index; prefix is the key prefix
	// the index covers, used where the server cannot count by query.
	SearchCount(ctx context.Context, index, prefix string) (int64, error)
}

// InfoReader reads server INFO sections.
type InfoReader interface {
	ServerInfo(ctx context.Context, section string) (map[string]string, error)
}
