package vecsearch

import "context"

// Transport executes remote calls on behalf of a Client. Failures reported
// by the service should be *StatusError values; anything else is surfaced to
// callers as StatusUnexpected.
//
//nolint:interfacebloat // one method per service call
type Transport interface {
	Ping(ctx context.Context) error
	Close() error

	CreateTable(ctx context.Context, schema TableSchema) error
	HasTable(ctx context.Context, name string) (bool, error)
	DeleteTable(ctx context.Context, name string) error
	DescribeTable(ctx context.Context, name string) (TableSchema, error)
	CountTable(ctx context.Context, name string) (int64, error)
	ListTables(ctx context.Context) ([]string, error)

	Insert(ctx context.Context, table string, records [][]float32, ids []int64) ([]int64, error)
	Search(ctx context.Context, req *SearchRequest) (*RawResponse, error)

	CreateIndex(ctx context.Context, param IndexParam) error
	DescribeIndex(ctx context.Context, table string) (IndexParam, error)
	DropIndex(ctx context.Context, table string) error
	PreloadTable(ctx context.Context, name string) error

	ServerVersion(ctx context.Context) (string, error)
	ServerStatus(ctx context.Context) (string, error)
}

// Dialer opens a Transport to a resolved endpoint.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Transport, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, target Target) (Transport, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, target Target) (Transport, error) {
	return f(ctx, target)
}
