package httpjson

import (
	"context"
	"errors"
	"net/http"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
	"github.com/kailas-cloud/vecsearch/internal/transport/wire"
)

// CreateTable sends POST /tables.
func (c *Client) CreateTable(ctx context.Context, schema table.Schema) error {
	return c.do(ctx, http.MethodPost, "/tables", wire.FromSchema(schema), nil)
}

// HasTable maps a TABLE_NOT_EXISTS answer to false.
func (c *Client) HasTable(ctx context.Context, name string) (bool, error) {
	var s wire.TableSchema
	err := c.do(ctx, http.MethodGet, tablePath(name), nil, &s)
	if errors.Is(err, domain.ErrTableNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteTable sends DELETE /tables/{table}.
func (c *Client) DeleteTable(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, tablePath(name), nil, nil)
}

// DescribeTable fetches a table schema.
func (c *Client) DescribeTable(ctx context.Context, name string) (table.Schema, error) {
	var s wire.TableSchema
	if err := c.do(ctx, http.MethodGet, tablePath(name), nil, &s); err != nil {
		return table.Schema{}, err
	}
	schema, err := s.Schema()
	if err != nil {
		return table.Schema{}, domain.NewStatus(domain.StatusUnexpected, "server returned invalid schema: %v", err)
	}
	return schema, nil
}

// CountTable returns the row count.
func (c *Client) CountTable(ctx context.Context, name string) (int64, error) {
	var n wire.Count
	if err := c.do(ctx, http.MethodGet, tablePath(name, "/count"), nil, &n); err != nil {
		return 0, err
	}
	return n.Count, nil
}

// ListTables returns every table name.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	var l wire.TableList
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &l); err != nil {
		return nil, err
	}
	return l.Tables, nil
}

// Insert sends POST /tables/{table}/vectors.
func (c *Client) Insert(ctx context.Context, name string, records [][]float32, ids []int64) ([]int64, error) {
	var resp wire.InsertResponse
	err := c.do(ctx, http.MethodPost, tablePath(name, "/vectors"), wire.InsertRequest{Records: records, IDs: ids}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.IDs) != len(records) {
		return nil, domain.NewStatus(domain.StatusUnexpected,
			"server returned %d ids for %d records", len(resp.IDs), len(records))
	}
	return resp.IDs, nil
}

// Search sends POST /tables/{table}/search.
func (c *Client) Search(ctx context.Context, req *topk.Request) (*topk.Response, error) {
	var resp wire.SearchResponse
	if err := c.do(ctx, http.MethodPost, tablePath(req.Table, "/search"), wire.FromRequest(req), &resp); err != nil {
		return nil, err
	}
	if len(resp.Queries) != len(req.Queries) {
		return nil, domain.NewStatus(domain.StatusIllegalSearchResult,
			"server answered %d of %d queries", len(resp.Queries), len(req.Queries))
	}
	return &resp, nil
}

// CreateIndex sends PUT /tables/{table}/index.
func (c *Client) CreateIndex(ctx context.Context, p index.Param) error {
	return c.do(ctx, http.MethodPut, tablePath(p.TableName(), "/index"), wire.FromIndex(p), nil)
}

// DescribeIndex fetches the index description.
func (c *Client) DescribeIndex(ctx context.Context, name string) (index.Param, error) {
	var p wire.IndexParam
	if err := c.do(ctx, http.MethodGet, tablePath(name, "/index"), nil, &p); err != nil {
		return index.Param{}, err
	}
	t, err := index.ParseType(p.IndexType)
	if err != nil {
		return index.Param{}, domain.NewStatus(domain.StatusUnexpected, "server returned invalid index: %v", err)
	}
	return index.Reconstruct(name, t, p.NList), nil
}

// DropIndex sends DELETE /tables/{table}/index.
func (c *Client) DropIndex(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, tablePath(name, "/index"), nil, nil)
}

// PreloadTable sends POST /tables/{table}/preload.
func (c *Client) PreloadTable(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, tablePath(name, "/preload"), nil, nil)
}
