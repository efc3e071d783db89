package httpjson

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/daterange"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
	"github.com/kailas-cloud/vecsearch/internal/server"
	"github.com/kailas-cloud/vecsearch/internal/transport/memory"
)

var testDay = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, apiKey string, serverKeys ...string) *Client {
	t.Helper()
	e := memory.NewEngine(memory.WithClock(func() time.Time { return testDay }), memory.WithVersion("1.2.3"))
	srv := httptest.NewServer(server.New(e, nil).Router(serverKeys))
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL + "/", APIKey: apiKey, HTTPClient: srv.Client()})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func mustSchema(t *testing.T, name string, dim int, m table.MetricType) table.Schema {
	t.Helper()
	s, err := table.New(name, dim, 1024, m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestClient_TableRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "")

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	s := mustSchema(t, "items", 3, table.MetricIP)
	if err := c.CreateTable(ctx, s); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := c.CreateTable(ctx, s); !errors.Is(err, domain.ErrTableExists) {
		t.Errorf("second CreateTable: got %v, want ErrTableExists", err)
	}

	ok, err := c.HasTable(ctx, "items")
	if err != nil || !ok {
		t.Errorf("HasTable(items) = %v, %v", ok, err)
	}
	ok, err = c.HasTable(ctx, "missing")
	if err != nil || ok {
		t.Errorf("HasTable(missing) = %v, %v", ok, err)
	}

	got, err := c.DescribeTable(ctx, "items")
	if err != nil || got != s {
		t.Errorf("DescribeTable = %v, %v", got, err)
	}

	names, err := c.ListTables(ctx)
	if err != nil || len(names) != 1 || names[0] != "items" {
		t.Errorf("ListTables = %v, %v", names, err)
	}

	if err := c.DeleteTable(ctx, "items"); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	_, err = c.DescribeTable(ctx, "items")
	var se *domain.StatusError
	if !errors.As(err, &se) || se.Code != domain.StatusTableNotExists {
		t.Errorf("DescribeTable after delete: got %v", err)
	}
}

func TestClient_InsertSearch(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "")
	if err := c.CreateTable(ctx, mustSchema(t, "items", 2, table.MetricL2)); err != nil {
		t.Fatal(err)
	}

	ids, err := c.Insert(ctx, "items", [][]float32{{0, 0}, {3, 4}}, []int64{10, 20})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if ids[0] != 10 || ids[1] != 20 {
		t.Errorf("Insert ids = %v", ids)
	}
	if n, err := c.CountTable(ctx, "items"); err != nil || n != 2 {
		t.Errorf("CountTable = %d, %v", n, err)
	}

	r, _ := daterange.Parse("2024-03-05", "2024-03-06")
	resp, err := c.Search(ctx, &topk.Request{
		Table:   "items",
		TopK:    5,
		NProbe:  1,
		Queries: [][]float32{{3, 4}, {0, 1}},
		Ranges:  []daterange.Range{r},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Queries) != 2 {
		t.Fatalf("Search queries = %d", len(resp.Queries))
	}
	first := resp.Queries[0]
	if len(first) != 2 || first[0].ID != 20 || first[0].Distance != 0 || first[1].Distance != 25 {
		t.Errorf("first query hits = %v", first)
	}

	_, err = c.Insert(ctx, "items", [][]float32{{1}}, nil)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("bad dimension: got %v", err)
	}
}

func TestClient_IndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "")
	if err := c.CreateTable(ctx, mustSchema(t, "items", 2, table.MetricL2)); err != nil {
		t.Fatal(err)
	}

	p, _ := index.New("items", index.MixNSG, 64)
	if err := c.CreateIndex(ctx, p); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	got, err := c.DescribeIndex(ctx, "items")
	if err != nil || got != p {
		t.Errorf("DescribeIndex = %v, %v", got, err)
	}
	if err := c.DropIndex(ctx, "items"); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	got, _ = c.DescribeIndex(ctx, "items")
	if got.IndexType() != index.Flat {
		t.Errorf("after drop = %v", got)
	}
	if err := c.PreloadTable(ctx, "items"); err != nil {
		t.Errorf("PreloadTable: %v", err)
	}
}

func TestClient_VersionStatus(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, "")
	if v, err := c.ServerVersion(ctx); err != nil || v != "1.2.3" {
		t.Errorf("ServerVersion = %q, %v", v, err)
	}
	if s, err := c.ServerStatus(ctx); err != nil || s != "OK" {
		t.Errorf("ServerStatus = %q, %v", s, err)
	}
}

func TestClient_Auth(t *testing.T) {
	ctx := context.Background()

	c := newTestClient(t, "secret", "secret")
	if _, err := c.ListTables(ctx); err != nil {
		t.Errorf("with key: %v", err)
	}

	c = newTestClient(t, "wrong", "secret")
	_, err := c.ListTables(ctx)
	var se *domain.StatusError
	if !errors.As(err, &se) || se.Code != domain.StatusPermissionDenied {
		t.Errorf("wrong key: got %v", err)
	}
}

func TestClient_ConnectFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Config{BaseURL: base})
	err := c.Ping(context.Background())
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("Ping closed server: got %v", err)
	}
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotID, gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"x"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.ServerVersion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(gotID) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", gotID)
	}
	if gotAuth != "Bearer k" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.HasPrefix(gotUA, "vecsearch-go/") {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestDecodeError_NonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.ListTables(context.Background())
	var se *domain.StatusError
	if !errors.As(err, &se) || se.Code != domain.StatusConnectFailed {
		t.Errorf("got %v, want CONNECT_FAILED", err)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ListTables(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
