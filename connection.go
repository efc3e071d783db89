package vecsearch

import "context"

// Connection is the full capability set of a search service client.
//
// A Connection starts Disconnected, becomes Connected after a successful
// Connect, and is Disconnected for good after Disconnect. Every method other
// than Connect, Connected, Disconnect and ClientVersion fails with
// ErrNotConnected unless the connection is Connected. Blocking methods are
// bounded by ctx.
//
//nolint:interfacebloat // one method per service operation
type Connection interface {
	Connect(ctx context.Context, endpoint Endpoint) error
	Connected() bool
	Disconnect() error

	CreateTable(ctx context.Context, schema TableSchema) error
	HasTable(ctx context.Context, name string) (bool, error)
	DeleteTable(ctx context.Context, name string) error
	DescribeTable(ctx context.Context, name string) (TableSchema, error)
	GetTableRowCount(ctx context.Context, name string) (int64, error)
	ShowTables(ctx context.Context) ([]string, error)

	// AddVectors inserts records. ids, when non-nil, must be parallel to
	// records; when nil the service assigns ids. The assigned ids are returned.
	AddVectors(ctx context.Context, table string, records [][]float32, ids []int64) ([]int64, error)

	// SearchVectors returns the topK nearest vectors of each query. Ranges,
	// when given, restrict the search to vectors inserted on their union.
	SearchVectors(
		ctx context.Context, table string, topK, nprobe int,
		queries [][]float32, ranges []DateRange, opts ...SearchOption,
	) (*TopKQueryResult, error)

	// SearchVectorsInFiles is SearchVectors restricted to the given segments.
	SearchVectorsInFiles(
		ctx context.Context, table string, fileIDs []string,
		queries [][]float32, topK, nprobe int, ranges []DateRange, opts ...SearchOption,
	) (*TopKQueryResult, error)

	CreateIndex(ctx context.Context, table string, param IndexParam) error
	DescribeIndex(ctx context.Context, table string) (IndexParam, error)
	DropIndex(ctx context.Context, table string) error

	// PreloadTable asks the service to warm its caches for a table.
	// Advisory: a failure does not affect correctness of later calls.
	PreloadTable(ctx context.Context, name string) error

	ClientVersion() string
	ServerVersion(ctx context.Context) (string, error)
	ServerStatus(ctx context.Context) (string, error)
}

// SearchOption configures a single search call.
type SearchOption interface {
	applySearch(*searchConfig)
}

type searchOptionFunc func(*searchConfig)

func (f searchOptionFunc) applySearch(c *searchConfig) { f(c) }

type searchConfig struct {
	mode DeliveryMode
}

// WithAsync makes the search return at once with an Async result.
// Call Resolve on it to wait for the rows.
func WithAsync() SearchOption {
	return searchOptionFunc(func(c *searchConfig) { c.mode = Async })
}

// WithLazy makes the search return a Lazy result that materializes its rows
// on first read. The search itself still completes before the call returns.
func WithLazy() SearchOption {
	return searchOptionFunc(func(c *searchConfig) { c.mode = Lazy })
}
