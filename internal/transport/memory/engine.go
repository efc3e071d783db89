// Package memory is an in-process search engine. It serves as the memory
// backend of vecsearchd and as a Transport for tests and embedded use.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
)

const mib = 1 << 20

// Engine holds tables in memory. It is safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	tables  map[string]*tableData
	now     func() time.Time
	version string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to date inserted rows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithVersion sets the version reported by ServerVersion.
func WithVersion(v string) Option {
	return func(e *Engine) { e.version = v }
}

// NewEngine creates an empty Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		tables:  make(map[string]*tableData),
		now:     time.Now,
		version: "dev",
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type row struct {
	id  int64
	vec []float32
	day time.Time
}

type segment struct {
	id    string
	rows  []row
	bytes int
}

type tableData struct {
	mu        sync.RWMutex
	schema    table.Schema
	index     index.Param
	segments  []*segment
	nextID    int64
	autoIDs   *bool // nil until the first insert decides
	count     int64
	preloaded bool
}

func (e *Engine) lookup(name string) (*tableData, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tables[name]
	if !ok {
		return nil, domain.NewStatus(domain.StatusTableNotExists, "table %s not exists", name)
	}
	return t, nil
}

// Ping always succeeds.
func (e *Engine) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateTable adds an empty table.
func (e *Engine) CreateTable(ctx context.Context, schema table.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if schema.IsZero() {
		return domain.NewStatus(domain.StatusIllegalTableName, "table schema is empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[schema.Name()]; ok {
		return domain.NewStatus(domain.StatusTableExists, "table %s already exists", schema.Name())
	}
	e.tables[schema.Name()] = &tableData{
		schema: schema,
		index:  index.Default(schema.Name()),
	}
	return nil
}

// HasTable reports whether a table exists.
func (e *Engine) HasTable(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.tables[name]
	return ok, nil
}

// DeleteTable removes a table and its rows.
func (e *Engine) DeleteTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[name]; !ok {
		return domain.NewStatus(domain.StatusTableNotExists, "table %s not exists", name)
	}
	delete(e.tables, name)
	return nil
}

// DescribeTable returns a table's schema.
func (e *Engine) DescribeTable(ctx context.Context, name string) (table.Schema, error) {
	if err := ctx.Err(); err != nil {
		return table.Schema{}, err
	}
	t, err := e.lookup(name)
	if err != nil {
		return table.Schema{}, err
	}
	return t.schema, nil
}

// CountTable returns the number of rows in a table.
func (e *Engine) CountTable(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t, err := e.lookup(name)
	if err != nil {
		return 0, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count, nil
}

// ListTables returns table names in lexical order.
func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	names := make([]string, 0, len(e.tables))
	for n := range e.tables {
		names = append(names, n)
	}
	e.mu.RUnlock()
	slices.Sort(names)
	return names, nil
}

// Insert appends rows dated today. ids must be nil or parallel to records.
// A table either always receives caller ids or never does.
func (e *Engine) Insert(ctx context.Context, name string, records [][]float32, ids []int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.NewStatus(domain.StatusIllegalRowRecord, "no records to insert")
	}
	if ids != nil && len(ids) != len(records) {
		return nil, domain.NewStatus(domain.StatusIllegalVectorID,
			"got %d ids for %d records", len(ids), len(records))
	}
	dim := t.schema.Dimension()
	for i, r := range records {
		if len(r) != dim {
			return nil, domain.NewStatus(domain.StatusIllegalDimension,
				"record %d has dimension %d, table %s has %d", i, len(r), name, dim)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	auto := ids == nil
	if t.autoIDs != nil && *t.autoIDs != auto {
		if auto {
			return nil, domain.NewStatus(domain.StatusIllegalVectorID, "table %s requires vector ids", name)
		}
		return nil, domain.NewStatus(domain.StatusIllegalVectorID, "table %s assigns vector ids itself", name)
	}
	t.autoIDs = &auto

	day := e.now()
	out := make([]int64, len(records))
	segCap := t.schema.IndexFileSize() * mib
	rowBytes := dim * 4
	for i, r := range records {
		id := t.nextID
		if auto {
			t.nextID++
		} else {
			id = ids[i]
		}
		seg := t.tail(segCap, rowBytes)
		seg.rows = append(seg.rows, row{id: id, vec: slices.Clone(r), day: day})
		seg.bytes += rowBytes
		out[i] = id
	}
	t.count += int64(len(records))
	return out, nil
}

// tail returns the segment that takes the next row, sealing the current one
// when the row would not fit.
func (t *tableData) tail(capBytes, rowBytes int) *segment {
	n := len(t.segments)
	if n == 0 || (t.segments[n-1].bytes > 0 && t.segments[n-1].bytes+rowBytes > capBytes) {
		seg := &segment{id: segmentID(n)}
		t.segments = append(t.segments, seg)
		return seg
	}
	return t.segments[n-1]
}

// Segments returns the segment ids of a table in creation order.
func (e *Engine) Segments(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.segments))
	for i, s := range t.segments {
		out[i] = s.id
	}
	return out, nil
}

// CreateIndex replaces a table's index description.
func (e *Engine) CreateIndex(ctx context.Context, p index.Param) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.IndexType().IsValid() {
		return domain.NewStatus(domain.StatusIllegalIndexType, "illegal index type %s", p.IndexType())
	}
	if p.NList() <= 0 {
		return domain.NewStatus(domain.StatusIllegalNList, "nlist must be positive")
	}
	t, err := e.lookup(p.TableName())
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.index = p
	t.mu.Unlock()
	return nil
}

// DescribeIndex returns a table's index description.
func (e *Engine) DescribeIndex(ctx context.Context, name string) (index.Param, error) {
	if err := ctx.Err(); err != nil {
		return index.Param{}, err
	}
	t, err := e.lookup(name)
	if err != nil {
		return index.Param{}, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index, nil
}

// DropIndex resets a table to the default index.
func (e *Engine) DropIndex(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := e.lookup(name)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.index = index.Default(name)
	t.mu.Unlock()
	return nil
}

// PreloadTable marks a table as preloaded. Everything is in memory already.
func (e *Engine) PreloadTable(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, err := e.lookup(name)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.preloaded = true
	t.mu.Unlock()
	return nil
}

// ServerVersion returns the engine version.
func (e *Engine) ServerVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.version, nil
}

// ServerStatus reports "OK".
func (e *Engine) ServerStatus(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "OK", nil
}

func segmentID(n int) string {
	return strconv.Itoa(n)
}
