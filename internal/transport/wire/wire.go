// Package wire holds the JSON bodies exchanged between the http transport
// and vecsearchd, with conversions to and from domain types.
package wire

import (
	"fmt"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/daterange"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
)

// TableSchema is the body of POST /tables and GET /tables/{table}.
type TableSchema struct {
	TableName     string `json:"table_name"`
	Dimension     int    `json:"dimension"`
	IndexFileSize int    `json:"index_file_size"`
	MetricType    string `json:"metric_type"`
}

// FromSchema converts a domain schema.
func FromSchema(s table.Schema) TableSchema {
	return TableSchema{
		TableName:     s.Name(),
		Dimension:     s.Dimension(),
		IndexFileSize: s.IndexFileSize(),
		MetricType:    s.MetricType().String(),
	}
}

// Schema validates and converts to a domain schema.
func (t TableSchema) Schema() (table.Schema, error) {
	m, err := table.ParseMetricType(t.MetricType)
	if err != nil {
		return table.Schema{}, err
	}
	return table.New(t.TableName, t.Dimension, t.IndexFileSize, m)
}

// TableList is the body of GET /tables.
type TableList struct {
	Tables []string `json:"tables"`
}

// Count is the body of GET /tables/{table}/count.
type Count struct {
	Count int64 `json:"count"`
}

// InsertRequest is the body of POST /tables/{table}/vectors. Omitted ids
// let the server assign them.
type InsertRequest struct {
	Records [][]float32 `json:"records"`
	IDs     []int64     `json:"ids,omitempty"`
}

// InsertResponse carries the ids of the inserted rows.
type InsertResponse struct {
	IDs []int64 `json:"ids"`
}

// DateRange is a [start_date, end_date) window in "2006-01-02" form.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SearchRequest is the body of POST /tables/{table}/search.
type SearchRequest struct {
	TopK    int         `json:"top_k"`
	NProbe  int         `json:"nprobe"`
	Queries [][]float32 `json:"queries"`
	Ranges  []DateRange `json:"ranges,omitempty"`
	FileIDs []string    `json:"file_ids,omitempty"`
}

// FromRequest converts a domain request; the table travels in the path.
func FromRequest(req *topk.Request) SearchRequest {
	out := SearchRequest{
		TopK:    req.TopK,
		NProbe:  req.NProbe,
		Queries: req.Queries,
		FileIDs: req.FileIDs,
	}
	for _, r := range req.Ranges {
		out.Ranges = append(out.Ranges, DateRange{
			StartDate: r.Start().Format(daterange.Layout),
			EndDate:   r.End().Format(daterange.Layout),
		})
	}
	return out
}

// Request converts to a validated domain request for tableName.
func (s SearchRequest) Request(tableName string) (*topk.Request, error) {
	req := &topk.Request{
		Table:   tableName,
		TopK:    s.TopK,
		NProbe:  s.NProbe,
		Queries: s.Queries,
		FileIDs: s.FileIDs,
	}
	for i, r := range s.Ranges {
		dr, err := daterange.Parse(r.StartDate, r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
		req.Ranges = append(req.Ranges, dr)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// SearchResponse is the body answering a search, one hit list per query.
type SearchResponse = topk.Response

// IndexParam is the body of PUT and GET /tables/{table}/index.
type IndexParam struct {
	IndexType string `json:"index_type"`
	NList     int    `json:"nlist"`
}

// FromIndex converts a domain index description.
func FromIndex(p index.Param) IndexParam {
	return IndexParam{IndexType: p.IndexType().String(), NList: p.NList()}
}

// Param validates and converts to a domain index description.
func (p IndexParam) Param(tableName string) (index.Param, error) {
	t, err := index.ParseType(p.IndexType)
	if err != nil {
		return index.Param{}, err
	}
	return index.New(tableName, t, p.NList)
}

// Version is the body of GET /version.
type Version struct {
	Version string `json:"version"`
}

// Status is the body of GET /status.
type Status struct {
	Status string `json:"status"`
}

// Error is the body of every failed response.
type Error struct {
	Code    domain.StatusCode `json:"code"`
	Message string            `json:"message"`
}

// Err converts the body back to a status error.
func (e Error) Err() *domain.StatusError {
	return &domain.StatusError{Code: e.Code, Message: e.Message}
}
