package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/vecsearch/internal/db"
	dbredis "github.com/kailas-cloud/vecsearch/internal/db/redis"
	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
)

// Insert stores rows dated today in one pipelined HSET batch. ids must be
// nil or parallel to records; a table either always receives caller ids or
// never does.
func (t *Transport) Insert(ctx context.Context, name string, records [][]float32, ids []int64) ([]int64, error) {
	meta, err := t.meta(ctx, name)
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
	dim := meta.schema.Dimension()
	for i, r := range records {
		if len(r) != dim {
			return nil, domain.NewStatus(domain.StatusIllegalDimension,
				"record %d has dimension %d, table %s has %d", i, len(r), name, dim)
		}
	}

	mode := idModeCaller
	if ids == nil {
		mode = idModeAuto
	}
	if err := t.claimIDMode(ctx, name, meta.idMode, mode); err != nil {
		return nil, err
	}

	n := int64(len(records))
	out := ids
	if ids == nil {
		last, err := t.store.IncrBy(ctx, seqKey(name), n)
		if err != nil {
			return nil, fmt.Errorf("allocate ids: %w", err)
		}
		out = make([]int64, n)
		for i := range out {
			out[i] = last - n + int64(i)
		}
	}

	total, err := t.store.IncrBy(ctx, rowCountKey(name), n)
	if err != nil {
		return nil, fmt.Errorf("allocate ordinals: %w", err)
	}
	first := total - n
	perSeg := rowsPerSegment(meta.schema)
	day := strconv.Itoa(dayNumber(t.now()))

	items := make([]db.HashSetItem, len(records))
	for i, r := range records {
		items[i] = db.HashSetItem{
			Key: rowKey(name, out[i]),
			Fields: map[string]string{
				fieldVector:  dbredis.VectorToBytes(r),
				fieldID:      strconv.FormatInt(out[i], 10),
				fieldDate:    day,
				fieldSegment: segmentOf(first+int64(i), perSeg),
			},
		}
	}
	if err := t.store.HSetMulti(ctx, items); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", name, err)
	}
	return append([]int64(nil), out...), nil
}

func (t *Transport) claimIDMode(ctx context.Context, name, current, want string) error {
	switch current {
	case want:
		return nil
	case "":
		if err := t.store.HSet(ctx, metaKey(name), map[string]string{"id_mode": want}); err != nil {
			return fmt.Errorf("hset id mode of %s: %w", name, err)
		}
		return nil
	case idModeCaller:
		return domain.NewStatus(domain.StatusIllegalVectorID, "table %s requires vector ids", name)
	default:
		return domain.NewStatus(domain.StatusIllegalVectorID, "table %s assigns vector ids itself", name)
	}
}

// Search runs one KNN query per request vector in a single pipeline.
func (t *Transport) Search(ctx context.Context, req *topk.Request) (*topk.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.AsStatus(err)
	}
	meta, err := t.meta(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	if dim := req.Dimension(); dim != meta.schema.Dimension() {
		return nil, domain.NewStatus(domain.StatusIllegalDimension,
			"query dimension %d, table %s has %d", dim, req.Table, meta.schema.Dimension())
	}
	if err := t.checkSegments(ctx, meta.schema, req.FileIDs); err != nil {
		return nil, err
	}

	filter := db.NewFilter().AnyTag(fieldSegment, req.FileIDs...)
	if len(req.Ranges) > 0 {
		ranges := make([]db.NumericRange, len(req.Ranges))
		for i, r := range req.Ranges {
			ranges[i] = db.NumericRange{
				Min: float64(dayNumber(r.Start())),
				Max: float64(dayNumber(r.End())),
			}
		}
		filter = filter.AnyRange(fieldDate, ranges...)
	}

	efRuntime := 0
	if meta.index.IndexType() != index.Flat {
		efRuntime = req.NProbe
	}

	qs := make([]*db.KNNQuery, len(req.Queries))
	for i, q := range req.Queries {
		qs[i] = &db.KNNQuery{
			IndexName:    indexName(req.Table),
			VectorField:  fieldVector,
			Filter:       filter,
			Vector:       q,
			K:            req.TopK,
			EFRuntime:    efRuntime,
			ReturnFields: []string{fieldID},
			RawScores:    true,
		}
	}

	results, err := t.store.SearchKNNMulti(ctx, qs)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Table, err)
	}

	resp := &topk.Response{Queries: make([]topk.QueryHits, len(results))}
	for qi, res := range results {
		hits := make(topk.QueryHits, 0, len(res.Entries))
		for _, e := range res.Entries {
			id, err := strconv.ParseInt(e.Fields[fieldID], 10, 64)
			if err != nil {
				return nil, domain.NewStatus(domain.StatusIllegalSearchResult, "row %s has no id", e.Key)
			}
			hits = append(hits, topk.Hit{ID: id, Distance: distance(meta.schema.MetricType(), e.Score)})
		}
		resp.Queries[qi] = hits
	}
	return resp, nil
}

// distance converts a server score: L2 is already squared distance, IP
// comes back as 1-dot.
func distance(m table.MetricType, score float64) float32 {
	if m == table.MetricIP {
		return float32(1 - score)
	}
	return float32(score)
}

// checkSegments rejects file ids that name no segment of the table.
func (t *Transport) checkSegments(ctx context.Context, s table.Schema, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := t.store.IncrBy(ctx, rowCountKey(s.Name()), 0)
	if err != nil {
		return fmt.Errorf("read row count of %s: %w", s.Name(), err)
	}
	perSeg := rowsPerSegment(s)
	segments := (rows + perSeg - 1) / perSeg
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n < 0 || n >= segments {
			return domain.NewStatus(domain.StatusFileNotFound, "file %s not found in table %s", id, s.Name())
		}
	}
	return nil
}
