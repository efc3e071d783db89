package vecsearch

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"
)

// DeliveryMode selects when a TopKQueryResult materializes its rows.
type DeliveryMode int

const (
	// Eager materializes at construction.
	Eager DeliveryMode = iota
	// Async holds a Future; rows exist only after Resolve.
	Async
	// Lazy materializes on first read.
	Lazy
)

func (m DeliveryMode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Async:
		return "async"
	case Lazy:
		return "lazy"
	default:
		return fmt.Sprintf("DeliveryMode(%d)", int(m))
	}
}

// ResultSource carries what a result is built from: a raw response for
// Eager and Lazy, a future for Async.
type ResultSource struct {
	Raw    *RawResponse
	Future *Future
}

// renderLimit is the row count above which String truncates.
const renderLimit = 5

// TopKQueryResult is the answer to a multi-query search: one row per query in
// submission order, each row holding that query's matches best first.
// It is safe for concurrent readers.
type TopKQueryResult struct {
	mode   DeliveryMode
	raw    *RawResponse
	future *Future

	once sync.Once
	rows [][]QueryResult
}

// NewTopKQueryResult wraps src under the given delivery mode. Eager and Lazy
// need src.Raw and no future; Async needs src.Future and no raw response.
func NewTopKQueryResult(mode DeliveryMode, src ResultSource) (*TopKQueryResult, error) {
	switch mode {
	case Eager, Lazy:
		if src.Raw == nil {
			return nil, fmt.Errorf("%w: %s result requires a raw response", ErrParam, mode)
		}
		if src.Future != nil {
			return nil, fmt.Errorf("%w: %s result must not carry a future", ErrParam, mode)
		}
	case Async:
		if src.Future == nil {
			return nil, fmt.Errorf("%w: async result requires a future", ErrParam)
		}
		if src.Raw != nil {
			return nil, fmt.Errorf("%w: async result must not carry a raw response", ErrParam)
		}
	default:
		return nil, fmt.Errorf("%w: unknown delivery mode %d", ErrParam, int(mode))
	}

	r := &TopKQueryResult{mode: mode, raw: src.Raw, future: src.Future}
	if mode == Eager {
		r.materialize()
	}
	return r, nil
}

// Mode returns the delivery mode.
func (r *TopKQueryResult) Mode() DeliveryMode { return r.mode }

// Raw returns the underlying response. Nil for an unresolved Async result.
func (r *TopKQueryResult) Raw() *RawResponse { return r.raw }

// Future returns the pending response of an Async result, nil otherwise.
func (r *TopKQueryResult) Future() *Future { return r.future }

func (r *TopKQueryResult) materialize() {
	r.once.Do(func() {
		if r.raw == nil {
			return
		}
		rows := make([][]QueryResult, 0, len(r.raw.Queries))
		for _, q := range r.raw.Queries {
			row := make([]QueryResult, len(q))
			copy(row, q)
			rows = append(rows, row)
		}
		r.rows = rows
	})
}

func (r *TopKQueryResult) data() [][]QueryResult {
	r.materialize()
	return r.rows
}

// Shape returns the row count and the column count of the first row.
// Rows may differ in length; only the first is measured. (0, 0) when empty.
func (r *TopKQueryResult) Shape() (rows, cols int) {
	d := r.data()
	if len(d) == 0 {
		return 0, 0
	}
	return len(d), len(d[0])
}

// Len returns the number of rows.
func (r *TopKQueryResult) Len() int {
	return len(r.data())
}

// At returns a copy of row i.
func (r *TopKQueryResult) At(i int) ([]QueryResult, error) {
	d := r.data()
	if i < 0 || i >= len(d) {
		return nil, fmt.Errorf("row %d of %d: %w", i, len(d), ErrIndexOutOfRange)
	}
	row := make([]QueryResult, len(d[i]))
	copy(row, d[i])
	return row, nil
}

// All iterates rows from the first on every call.
func (r *TopKQueryResult) All() iter.Seq2[int, []QueryResult] {
	return func(yield func(int, []QueryResult) bool) {
		for i, row := range r.data() {
			if !yield(i, row) {
				return
			}
		}
	}
}

// Resolve waits up to timeout for an Async result and returns a new Eager
// result over the completed response. A timeout of zero or less waits without
// bound. On timeout the error wraps ErrTimeout and the search keeps running,
// so Resolve may be called again. Eager and Lazy results return themselves.
func (r *TopKQueryResult) Resolve(timeout time.Duration) (*TopKQueryResult, error) {
	if r.mode != Async {
		return r, nil
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := r.future.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = &RawResponse{}
	}
	return NewTopKQueryResult(Eager, ResultSource{Raw: resp})
}

// String renders the rows. Above five rows only the first three are shown,
// each cut to its first three matches and its last one.
func (r *TopKQueryResult) String() string {
	d := r.data()
	var b strings.Builder

	if len(d) > renderLimit {
		b.WriteString("[\n")
		for _, row := range d[:3] {
			if len(row) == 0 {
				b.WriteString(" [ ]\n\n")
				continue
			}
			b.WriteString(" [ ")
			writeHits(&b, row[:min(3, len(row))], ",\n   ")
			b.WriteString(",\n   ...")
			b.WriteString("\n   ")
			b.WriteString(row[len(row)-1].String())
			b.WriteString(" ]\n\n")
		}
		b.WriteString("        ......\n        ......")
		b.WriteString("\n]")
		return b.String()
	}

	b.WriteString("[\n")
	for i, row := range d {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("[\n")
		writeHits(&b, row, ",\n")
		b.WriteString("\n]")
	}
	b.WriteString("\n]")
	return b.String()
}

func writeHits(b *strings.Builder, hits []QueryResult, sep string) {
	for i, h := range hits {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(h.String())
	}
}
