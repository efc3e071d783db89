package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/viterin/vek/vek32"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/daterange"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
)

// Search scans every candidate row for every query. Rows must fall in one of
// req.Ranges (when given) and in one of req.FileIDs (when given).
func (e *Engine) Search(ctx context.Context, req *topk.Request) (*topk.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.AsStatus(err)
	}
	t, err := e.lookup(req.Table)
	if err != nil {
		return nil, err
	}
	if dim := req.Dimension(); dim != t.schema.Dimension() {
		return nil, domain.NewStatus(domain.StatusIllegalDimension,
			"query dimension %d, table %s has %d", dim, req.Table, t.schema.Dimension())
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	segs, err := t.pick(req.FileIDs)
	if err != nil {
		return nil, err
	}

	metric := t.schema.MetricType()
	resp := &topk.Response{Queries: make([]topk.QueryHits, len(req.Queries))}
	for qi, q := range req.Queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var hits topk.QueryHits
		for _, seg := range segs {
			for i := range seg.rows {
				r := &seg.rows[i]
				if !daterange.AnyContains(req.Ranges, r.day) {
					continue
				}
				hits = append(hits, topk.Hit{ID: r.id, Distance: distance(metric, q, r.vec)})
			}
		}
		sortHits(metric, hits)
		if len(hits) > req.TopK {
			hits = hits[:req.TopK]
		}
		resp.Queries[qi] = slices.Clip(hits)
	}
	return resp, nil
}

// pick returns the segments named by ids, or all of them when ids is empty.
func (t *tableData) pick(ids []string) ([]*segment, error) {
	if len(ids) == 0 {
		return t.segments, nil
	}
	out := make([]*segment, 0, len(ids))
	for _, id := range ids {
		i := slices.IndexFunc(t.segments, func(s *segment) bool { return s.id == id })
		if i < 0 {
			return nil, domain.NewStatus(domain.StatusFileNotFound,
				"file %s not found in table %s", id, t.schema.Name())
		}
		if !slices.Contains(out, t.segments[i]) {
			out = append(out, t.segments[i])
		}
	}
	return out, nil
}

// distance is squared Euclidean for L2 and the inner product for IP.
func distance(metric table.MetricType, a, b []float32) float32 {
	if metric == table.MetricIP {
		return vek32.Dot(a, b)
	}
	diff := vek32.Sub(a, b)
	return vek32.Dot(diff, diff)
}

// sortHits orders best first: ascending for L2, descending for IP, id on ties.
func sortHits(metric table.MetricType, hits []topk.Hit) {
	slices.SortFunc(hits, func(a, b topk.Hit) int {
		c := cmp.Compare(a.Distance, b.Distance)
		if metric == table.MetricIP {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
