package vecsearch

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/vecsearch/internal/transport/memory"
)

// --- Transport mock ---

// mockTransport runs on a memory session unless a hook is set.
type mockTransport struct {
	*memory.Session

	pingFn     func(ctx context.Context) error
	insertFn   func(ctx context.Context, table string, records [][]float32, ids []int64) ([]int64, error)
	searchFn   func(ctx context.Context, req *SearchRequest) (*RawResponse, error)
	describeFn func(ctx context.Context, name string) (TableSchema, error)
	listFn     func(ctx context.Context) ([]string, error)
	preloadFn  func(ctx context.Context, name string) error

	describeCalls atomic.Int32
	insertCalls   atomic.Int32
	closeCalls    atomic.Int32
}

var _ Transport = (*mockTransport)(nil)

func newMockTransport() *mockTransport {
	return &mockTransport{Session: memory.NewEngine().Session()}
}

func (m *mockTransport) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return m.Session.Ping(ctx)
}

func (m *mockTransport) Close() error {
	m.closeCalls.Add(1)
	return m.Session.Close()
}

func (m *mockTransport) Insert(ctx context.Context, table string, records [][]float32, ids []int64) ([]int64, error) {
	m.insertCalls.Add(1)
	if m.insertFn != nil {
		return m.insertFn(ctx, table, records, ids)
	}
	return m.Session.Insert(ctx, table, records, ids)
}

func (m *mockTransport) Search(ctx context.Context, req *SearchRequest) (*RawResponse, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return m.Session.Search(ctx, req)
}

func (m *mockTransport) DescribeTable(ctx context.Context, name string) (TableSchema, error) {
	m.describeCalls.Add(1)
	if m.describeFn != nil {
		return m.describeFn(ctx, name)
	}
	return m.Session.DescribeTable(ctx, name)
}

func (m *mockTransport) ListTables(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return m.Session.ListTables(ctx)
}

func (m *mockTransport) PreloadTable(ctx context.Context, name string) error {
	if m.preloadFn != nil {
		return m.preloadFn(ctx, name)
	}
	return m.Session.PreloadTable(ctx, name)
}

// dialerFor returns a Dialer that always hands out tr.
func dialerFor(tr Transport) Dialer {
	return DialerFunc(func(context.Context, Target) (Transport, error) {
		return tr, nil
	})
}
