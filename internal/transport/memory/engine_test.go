package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/daterange"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestEngine(t *testing.T, metric table.MetricType) (*Engine, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)}
	e := NewEngine(WithClock(clk.now), WithVersion("test"))
	s, err := table.New("t", 2, 1, metric)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	if err := e.CreateTable(context.Background(), s); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return e, clk
}

func assertStatus(t *testing.T, err error, code domain.StatusCode) {
	t.Helper()
	var se *domain.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError %s, got %v", code, err)
	}
	if se.Code != code {
		t.Fatalf("status = %s, want %s", se.Code, code)
	}
}

func TestEngine_TableLifecycle(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricL2)
	ctx := context.Background()

	s, _ := table.New("t", 2, 1, table.MetricL2)
	assertStatus(t, e.CreateTable(ctx, s), domain.StatusTableExists)

	ok, err := e.HasTable(ctx, "t")
	if err != nil || !ok {
		t.Fatalf("HasTable = %v, %v", ok, err)
	}
	got, err := e.DescribeTable(ctx, "t")
	if err != nil || got != s {
		t.Fatalf("DescribeTable = %v, %v", got, err)
	}

	other, _ := table.New("a", 4, 1, table.MetricIP)
	_ = e.CreateTable(ctx, other)
	names, _ := e.ListTables(ctx)
	if len(names) != 2 || names[0] != "a" || names[1] != "t" {
		t.Errorf("ListTables = %v", names)
	}

	if err := e.DeleteTable(ctx, "t"); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	assertStatus(t, e.DeleteTable(ctx, "t"), domain.StatusTableNotExists)
	_, err = e.DescribeTable(ctx, "t")
	if !errors.Is(err, domain.ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestEngine_InsertAutoIDs(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricL2)
	ctx := context.Background()

	ids, err := e.Insert(ctx, "t", [][]float32{{0, 0}, {1, 1}}, nil)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Errorf("ids = %v", ids)
	}
	ids, _ = e.Insert(ctx, "t", [][]float32{{2, 2}}, nil)
	if ids[0] != 2 {
		t.Errorf("second batch id = %d, want 2", ids[0])
	}
	n, _ := e.CountTable(ctx, "t")
	if n != 3 {
		t.Errorf("CountTable = %d, want 3", n)
	}

	_, err = e.Insert(ctx, "t", [][]float32{{3, 3}}, []int64{100})
	assertStatus(t, err, domain.StatusIllegalVectorID)
}

func TestEngine_InsertValidation(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricL2)
	ctx := context.Background()

	_, err := e.Insert(ctx, "t", [][]float32{{1, 2, 3}}, nil)
	assertStatus(t, err, domain.StatusIllegalDimension)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Error("dimension status must match ErrDimensionMismatch")
	}

	_, err = e.Insert(ctx, "t", [][]float32{{1, 2}}, []int64{1, 2})
	assertStatus(t, err, domain.StatusIllegalVectorID)

	_, err = e.Insert(ctx, "t", nil, nil)
	assertStatus(t, err, domain.StatusIllegalRowRecord)

	_, err = e.Insert(ctx, "missing", [][]float32{{1, 2}}, nil)
	assertStatus(t, err, domain.StatusTableNotExists)
}

func TestEngine_SearchL2(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricL2)
	ctx := context.Background()
	_, _ = e.Insert(ctx, "t", [][]float32{{0, 0}, {3, 4}, {1, 0}}, []int64{10, 20, 30})

	resp, err := e.Search(ctx, &topk.Request{
		Table: "t", TopK: 2, NProbe: 1,
		Queries: [][]float32{{0, 0}, {3, 4}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Queries) != 2 {
		t.Fatalf("queries = %d", len(resp.Queries))
	}
	q0 := resp.Queries[0]
	if len(q0) != 2 || q0[0].ID != 10 || q0[0].Distance != 0 || q0[1].ID != 30 || q0[1].Distance != 1 {
		t.Errorf("query 0 = %v", q0)
	}
	if resp.Queries[1][0].ID != 20 {
		t.Errorf("query 1 best = %v", resp.Queries[1][0])
	}
}

func TestEngine_SearchIPDescending(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricIP)
	ctx := context.Background()
	_, _ = e.Insert(ctx, "t", [][]float32{{1, 0}, {0, 1}, {2, 0}}, nil)

	resp, err := e.Search(ctx, &topk.Request{
		Table: "t", TopK: 3, NProbe: 1, Queries: [][]float32{{1, 0}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	hits := resp.Queries[0]
	if hits[0].ID != 2 || hits[0].Distance != 2 || hits[1].ID != 0 || hits[2].ID != 1 {
		t.Errorf("hits = %v", hits)
	}
}

func TestEngine_SearchDateRanges(t *testing.T) {
	e, clk := newTestEngine(t, table.MetricL2)
	ctx := context.Background()
	_, _ = e.Insert(ctx, "t", [][]float32{{0, 0}}, nil) // 2024-01-10
	clk.t = clk.t.AddDate(0, 0, 5)
	_, _ = e.Insert(ctx, "t", [][]float32{{0, 1}}, nil) // 2024-01-15

	r, _ := daterange.Parse("2024-01-12", "2024-01-20")
	resp, err := e.Search(ctx, &topk.Request{
		Table: "t", TopK: 10, NProbe: 1,
		Queries: [][]float32{{0, 0}},
		Ranges:  []daterange.Range{r},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits := resp.Queries[0]; len(hits) != 1 || hits[0].ID != 1 {
		t.Errorf("hits = %v", hits)
	}
}

func TestEngine_SegmentsAndFileFilter(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	// 1 MiB segments of 32768-dim rows hold 8 rows each
	s, _ := table.New("big", table.MaxDimension, 1, table.MetricL2)
	_ = e.CreateTable(ctx, s)

	recs := make([][]float32, 10)
	for i := range recs {
		recs[i] = make([]float32, s.Dimension())
		recs[i][0] = float32(i)
	}
	if _, err := e.Insert(ctx, "big", recs, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	segs, _ := e.Segments(ctx, "big")
	if len(segs) != 2 || segs[0] != "0" || segs[1] != "1" {
		t.Fatalf("segments = %v", segs)
	}

	q := make([]float32, s.Dimension())
	resp, err := e.Search(ctx, &topk.Request{
		Table: "big", TopK: 100, NProbe: 1, Queries: [][]float32{q}, FileIDs: []string{"1"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, h := range resp.Queries[0] {
		if h.ID < 8 {
			t.Errorf("hit %d is outside segment 1", h.ID)
		}
	}
	if len(resp.Queries[0]) != 2 {
		t.Errorf("segment 1 hits = %d, want 2", len(resp.Queries[0]))
	}

	_, err = e.Search(ctx, &topk.Request{
		Table: "big", TopK: 1, NProbe: 1, Queries: [][]float32{q}, FileIDs: []string{"9"},
	})
	assertStatus(t, err, domain.StatusFileNotFound)
}

func TestEngine_SearchDimensionMismatch(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricL2)
	_, err := e.Search(context.Background(), &topk.Request{
		Table: "t", TopK: 1, NProbe: 1, Queries: [][]float32{{1, 2, 3}},
	})
	assertStatus(t, err, domain.StatusIllegalDimension)
}

func TestEngine_Index(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricL2)
	ctx := context.Background()

	p, _ := e.DescribeIndex(ctx, "t")
	if p.IndexType() != index.Flat || p.NList() != index.DefaultNList {
		t.Errorf("default index = %v", p)
	}
	want, _ := index.New("t", index.IVFSQ8, 512)
	if err := e.CreateIndex(ctx, want); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if p, _ = e.DescribeIndex(ctx, "t"); p != want {
		t.Errorf("DescribeIndex = %v, want %v", p, want)
	}
	if err := e.DropIndex(ctx, "t"); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	if p, _ = e.DescribeIndex(ctx, "t"); p.IndexType() != index.Flat {
		t.Errorf("after drop = %v", p)
	}
	assertStatus(t, e.CreateIndex(ctx, index.Reconstruct("t", index.Invalid, 1)), domain.StatusIllegalIndexType)
}

func TestSession_Close(t *testing.T) {
	e, _ := newTestEngine(t, table.MetricL2)
	s := e.Session()
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	_ = s.Close()
	assertStatus(t, s.Ping(ctx), domain.StatusConnectFailed)

	if ok, _ := e.Session().HasTable(ctx, "t"); !ok {
		t.Error("closing a session must not drop tables")
	}
}

func TestDistance(t *testing.T) {
	nine := func(v float32) []float32 {
		out := make([]float32, 9)
		out[0] = v
		return out
	}
	tests := []struct {
		name   string
		metric table.MetricType
		a, b   []float32
		want   float32
	}{
		{"l2 unit", table.MetricL2, []float32{0, 0}, []float32{1, 0}, 1},
		{"l2 3-4-5", table.MetricL2, []float32{0, 0}, []float32{3, 4}, 25},
		{"l2 wide unit", table.MetricL2, nine(0), nine(1), 1},
		{"l2 wide", table.MetricL2,
			[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			[]float32{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 385},
		{"ip", table.MetricIP, []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := distance(tc.metric, tc.a, tc.b); got != tc.want {
				t.Errorf("distance = %v, want %v", got, tc.want)
			}
		})
	}
}
