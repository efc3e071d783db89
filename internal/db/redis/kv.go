package redis

import (
	"context"

	"github.com/kailas-cloud/vecsearch/internal/db"
)

// IncrBy atomically adds val to key and returns the new value.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	cmd := s.b().Incrby().Key(key).Increment(val).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Key: key, Err: err}
	}
	return n, nil
}
