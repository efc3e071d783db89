package redis

import (
	"context"
	"path"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/vecsearch/internal/db"
)

// fakeStore keeps hashes and counters in maps and records FT calls.
type fakeStore struct {
	mu       sync.Mutex
	hashes   map[string]map[string]string
	counters map[string]int64
	indexes  map[string]*db.IndexDefinition

	queries   []*db.KNNQuery
	searchFn  func(qs []*db.KNNQuery) ([]*db.SearchResult, error)
	count     int64
	createErr error
	pingErr   error
	info      map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:   make(map[string]map[string]string),
		counters: make(map[string]int64),
		indexes:  make(map[string]*db.IndexDefinition),
	}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (f *fakeStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, it := range items {
		if err := f.HSet(ctx, it.Key, it.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.hashes, k)
		delete(f.counters, k)
	}
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.hashes[key]
	if !ok {
		_, ok = f.counters[key]
	}
	return ok, nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	for k := range f.counters {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (f *fakeStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[key] += val
	return f.counters[key], nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	f.indexes[def.Name] = def
	return nil
}

func (f *fakeStore) DropIndex(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(f.indexes, name)
	return nil
}

func (f *fakeStore) IndexExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.indexes[name]
	return ok, nil
}

func (f *fakeStore) SearchKNNMulti(_ context.Context, qs []*db.KNNQuery) ([]*db.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, qs...)
	fn := f.searchFn
	f.mu.Unlock()
	if fn != nil {
		return fn(qs)
	}
	out := make([]*db.SearchResult, len(qs))
	for i := range out {
		out[i] = &db.SearchResult{}
	}
	return out, nil
}

func (f *fakeStore) SearchCount(context.Context, string, string) (int64, error) {
	return f.count, nil
}

func (f *fakeStore) ServerInfo(context.Context, string) (map[string]string, error) {
	return f.info, nil
}

var testDay = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func newTestTransport(t *testing.T) (*Transport, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	return New(fs, WithClock(func() time.Time { return testDay })), fs
}
