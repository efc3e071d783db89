package vecsearch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/version"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultSchemaCacheSize = 256
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnected
	stateClosed
)

// Client is the vecsearch Connection over a pluggable Transport.
// It is safe for concurrent use.
type Client struct {
	cfg     *clientConfig
	obs     *observer
	schemas *lru.Cache[string, TableSchema]

	mu    sync.RWMutex
	state connState
	tr    Transport
}

// Compile-time check: Client implements Connection.
var _ Connection = (*Client)(nil)

// New creates a disconnected Client. Call Connect before anything else.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:          driverHTTP,
		timeout:         defaultTimeout,
		schemaCacheSize: defaultSchemaCacheSize,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.schemaCacheSize <= 0 {
		cfg.schemaCacheSize = defaultSchemaCacheSize
	}

	schemas, err := lru.New[string, TableSchema](cfg.schemaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("vecsearch: schema cache: %w", err)
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, obs: obs, schemas: schemas}, nil
}

// Connect opens a session to endpoint and checks it with a ping.
// Connecting a connected client is a no-op; a disconnected one returns ErrClosed.
func (c *Client) Connect(ctx context.Context, endpoint Endpoint) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("connect", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateConnected:
		return nil
	case stateClosed:
		return fmt.Errorf("connect: %w", ErrClosed)
	}

	target, err := endpoint.Resolve()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tr, err := c.dial(ctx, target)
	if err != nil {
		return fmt.Errorf("connect: %w", connectFailed(err))
	}
	if err := tr.Ping(ctx); err != nil {
		_ = tr.Close()
		return fmt.Errorf("connect: %w", connectFailed(err))
	}

	c.tr = tr
	c.state = stateConnected
	return nil
}

func connectFailed(err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		return err
	}
	return &StatusError{Code: StatusConnectFailed, Message: err.Error()}
}

// Connected reports whether the client is connected. No network call is made.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == stateConnected
}

// Disconnect closes the session for good.
func (c *Client) Disconnect() (err error) {
	start := time.Now()
	defer func() { c.obs.observe("disconnect", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateDisconnected:
		return fmt.Errorf("disconnect: %w", ErrNotConnected)
	case stateClosed:
		return fmt.Errorf("disconnect: %w", ErrClosed)
	}

	tr := c.tr
	c.tr = nil
	c.state = stateClosed
	c.schemas.Purge()

	if err := tr.Close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// CreateTable creates a table.
func (c *Client) CreateTable(ctx context.Context, schema TableSchema) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("table.create", start, err) }()

	tr, err := c.session()
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if schema.IsZero() {
		return fmt.Errorf("create table: %w: empty schema", ErrParam)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := tr.CreateTable(ctx, schema); err != nil {
		return c.remote("create table", err)
	}
	c.schemas.Add(schema.Name(), schema)
	return nil
}

// HasTable reports whether a table exists.
func (c *Client) HasTable(ctx context.Context, name string) (_ bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("table.has", start, err) }()

	tr, err := c.session()
	if err != nil {
		return false, fmt.Errorf("has table: %w", err)
	}
	if err := table.ValidateName(name); err != nil {
		return false, fmt.Errorf("has table: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ok, err := tr.HasTable(ctx, name)
	if err != nil {
		return false, c.remote("has table", err)
	}
	return ok, nil
}

// DeleteTable removes a table and its vectors.
func (c *Client) DeleteTable(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("table.delete", start, err) }()

	tr, err := c.session()
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if err := table.ValidateName(name); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.schemas.Remove(name)
	if err := tr.DeleteTable(ctx, name); err != nil {
		return c.remote("delete table", err)
	}
	return nil
}

// DescribeTable returns a table's schema.
func (c *Client) DescribeTable(ctx context.Context, name string) (_ TableSchema, err error) {
	start := time.Now()
	defer func() { c.obs.observe("table.describe", start, err) }()

	tr, err := c.session()
	if err != nil {
		return TableSchema{}, fmt.Errorf("describe table: %w", err)
	}
	if err := table.ValidateName(name); err != nil {
		return TableSchema{}, fmt.Errorf("describe table: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	schema, err := tr.DescribeTable(ctx, name)
	if err != nil {
		if errors.Is(err, ErrTableNotFound) {
			c.schemas.Remove(name)
		}
		return TableSchema{}, c.remote("describe table", err)
	}
	c.schemas.Add(name, schema)
	return schema, nil
}

// GetTableRowCount returns the number of vectors in a table.
func (c *Client) GetTableRowCount(ctx context.Context, name string) (_ int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("table.count", start, err) }()

	tr, err := c.session()
	if err != nil {
		return 0, fmt.Errorf("count table: %w", err)
	}
	if err := table.ValidateName(name); err != nil {
		return 0, fmt.Errorf("count table: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := tr.CountTable(ctx, name)
	if err != nil {
		return 0, c.remote("count table", err)
	}
	return n, nil
}

// ShowTables lists table names.
func (c *Client) ShowTables(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("table.list", start, err) }()

	tr, err := c.session()
	if err != nil {
		return nil, fmt.Errorf("show tables: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	names, err := tr.ListTables(ctx)
	if err != nil {
		return nil, c.remote("show tables", err)
	}
	return names, nil
}

// AddVectors inserts records into a table and returns their ids.
func (c *Client) AddVectors(
	ctx context.Context, tableName string, records [][]float32, ids []int64,
) (_ []int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("vectors.add", start, err) }()

	tr, err := c.session()
	if err != nil {
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	if err := table.ValidateName(tableName); err != nil {
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("add vectors: %w: no records", ErrParam)
	}
	if ids != nil && len(ids) != len(records) {
		return nil, fmt.Errorf("add vectors: %w: %d ids for %d records", ErrParam, len(ids), len(records))
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	schema, err := c.schema(ctx, tr, tableName)
	if err != nil {
		return nil, c.remote("add vectors", err)
	}
	for i, r := range records {
		if len(r) != schema.Dimension() {
			return nil, fmt.Errorf("add vectors: record %d has dimension %d, table %s has %d: %w",
				i, len(r), tableName, schema.Dimension(), ErrDimensionMismatch)
		}
	}

	out, err := tr.Insert(ctx, tableName, records, ids)
	if err != nil {
		if errors.Is(err, ErrDimensionMismatch) {
			c.schemas.Remove(tableName)
		}
		return nil, c.remote("add vectors", err)
	}
	return out, nil
}

// SearchVectors returns the topK nearest vectors of each query, optionally
// restricted to vectors inserted within ranges.
func (c *Client) SearchVectors(
	ctx context.Context, tableName string, topK, nprobe int,
	queries [][]float32, ranges []DateRange, opts ...SearchOption,
) (*TopKQueryResult, error) {
	return c.search(ctx, "vectors.search", &SearchRequest{
		Table:   tableName,
		TopK:    topK,
		NProbe:  nprobe,
		Queries: queries,
		Ranges:  ranges,
	}, opts)
}

// SearchVectorsInFiles is SearchVectors over the listed segments only.
func (c *Client) SearchVectorsInFiles(
	ctx context.Context, tableName string, fileIDs []string,
	queries [][]float32, topK, nprobe int, ranges []DateRange, opts ...SearchOption,
) (*TopKQueryResult, error) {
	return c.search(ctx, "vectors.search_in_files", &SearchRequest{
		Table:   tableName,
		TopK:    topK,
		NProbe:  nprobe,
		Queries: queries,
		Ranges:  ranges,
		FileIDs: fileIDs,
	}, opts)
}

func (c *Client) search(
	ctx context.Context, op string, req *SearchRequest, opts []SearchOption,
) (_ *TopKQueryResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	sc := searchConfig{mode: Eager}
	for _, o := range opts {
		o.applySearch(&sc)
	}

	tr, err := c.session()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if op == "vectors.search_in_files" && len(req.FileIDs) == 0 {
		return nil, fmt.Errorf("search: %w: at least one file id is required", ErrParam)
	}

	sctx, cancel := c.withTimeout(ctx)
	defer cancel()

	schema, err := c.schema(sctx, tr, req.Table)
	if err != nil {
		return nil, c.remote("search", err)
	}
	if req.Dimension() != schema.Dimension() {
		return nil, fmt.Errorf("search: query dimension %d, table %s has %d: %w",
			req.Dimension(), req.Table, schema.Dimension(), ErrDimensionMismatch)
	}

	if sc.mode == Async {
		// The caller may reuse its slices once we return.
		owned := *req
		owned.Queries = make([][]float32, len(req.Queries))
		for i, q := range req.Queries {
			owned.Queries[i] = slices.Clone(q)
		}
		owned.Ranges = slices.Clone(req.Ranges)
		owned.FileIDs = slices.Clone(req.FileIDs)

		fut := RunAsync(context.WithoutCancel(ctx), func(ctx context.Context) (*RawResponse, error) {
			ctx, cancel := c.withTimeout(ctx)
			defer cancel()
			return c.doSearch(ctx, tr, &owned)
		})
		return NewTopKQueryResult(Async, ResultSource{Future: fut})
	}

	resp, err := c.doSearch(sctx, tr, req)
	if err != nil {
		return nil, err
	}
	return NewTopKQueryResult(sc.mode, ResultSource{Raw: resp})
}

func (c *Client) doSearch(ctx context.Context, tr Transport, req *SearchRequest) (*RawResponse, error) {
	resp, err := tr.Search(ctx, req)
	if err != nil {
		return nil, c.remote("search", err)
	}
	if resp == nil {
		resp = &RawResponse{}
	}
	if len(resp.Queries) != len(req.Queries) {
		return nil, fmt.Errorf("search: %w", domain.NewStatus(domain.StatusIllegalSearchResult,
			"got %d result rows for %d queries", len(resp.Queries), len(req.Queries)))
	}
	return resp, nil
}

// CreateIndex builds an index on tableName. param must target the same table.
func (c *Client) CreateIndex(ctx context.Context, tableName string, param IndexParam) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("index.create", start, err) }()

	tr, err := c.session()
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := table.ValidateName(tableName); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if !param.IndexType().IsValid() || param.NList() <= 0 {
		return fmt.Errorf("create index: %w: %s", ErrParam, param)
	}
	if param.TableName() != tableName {
		return fmt.Errorf("create index: %w: param targets table %q, not %q",
			ErrParam, param.TableName(), tableName)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := tr.CreateIndex(ctx, param); err != nil {
		return c.remote("create index", err)
	}
	return nil
}

// DescribeIndex returns a table's index.
func (c *Client) DescribeIndex(ctx context.Context, tableName string) (_ IndexParam, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index.describe", start, err) }()

	tr, err := c.session()
	if err != nil {
		return IndexParam{}, fmt.Errorf("describe index: %w", err)
	}
	if err := table.ValidateName(tableName); err != nil {
		return IndexParam{}, fmt.Errorf("describe index: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	p, err := tr.DescribeIndex(ctx, tableName)
	if err != nil {
		return IndexParam{}, c.remote("describe index", err)
	}
	return p, nil
}

// DropIndex returns a table to its default index.
func (c *Client) DropIndex(ctx context.Context, tableName string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("index.drop", start, err) }()

	tr, err := c.session()
	if err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	if err := table.ValidateName(tableName); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := tr.DropIndex(ctx, tableName); err != nil {
		return c.remote("drop index", err)
	}
	return nil
}

// PreloadTable asks the service to load a table into memory.
func (c *Client) PreloadTable(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("table.preload", start, err) }()

	tr, err := c.session()
	if err != nil {
		return fmt.Errorf("preload table: %w", err)
	}
	if err := table.ValidateName(name); err != nil {
		return fmt.Errorf("preload table: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := tr.PreloadTable(ctx, name); err != nil {
		c.obs.warn("preload failed, searches will load lazily",
			zap.String("table", name), zap.Error(err))
		return c.remote("preload table", err)
	}
	return nil
}

// ClientVersion returns the version of this module.
func (c *Client) ClientVersion() string {
	return version.Version
}

// ServerVersion returns the service version.
func (c *Client) ServerVersion(ctx context.Context) (_ string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("server.version", start, err) }()

	tr, err := c.session()
	if err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	v, err := tr.ServerVersion(ctx)
	if err != nil {
		return "", c.remote("server version", err)
	}
	return v, nil
}

// ServerStatus returns the service status line.
func (c *Client) ServerStatus(ctx context.Context) (_ string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("server.status", start, err) }()

	tr, err := c.session()
	if err != nil {
		return "", fmt.Errorf("server status: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	s, err := tr.ServerStatus(ctx)
	if err != nil {
		return "", c.remote("server status", err)
	}
	return s, nil
}

// session returns the transport of a connected client.
func (c *Client) session() (Transport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != stateConnected {
		return nil, ErrNotConnected
	}
	return c.tr, nil
}

// schema returns a table schema from cache, describing the table on a miss.
func (c *Client) schema(ctx context.Context, tr Transport, name string) (TableSchema, error) {
	if s, ok := c.schemas.Get(name); ok {
		return s, nil
	}
	s, err := tr.DescribeTable(ctx, name)
	if err != nil {
		return TableSchema{}, err
	}
	c.schemas.Add(name, s)
	return s, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.timeout)
}

// remote turns a transport failure into a status. Deadlines become ErrTimeout,
// cancellation is passed through.
func (c *Client) remote(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, domain.AsStatus(err))
}
