package vecsearch

import (
	"time"

	"github.com/kailas-cloud/vecsearch/internal/domain/daterange"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
)

type (
	// TableSchema describes a vector table.
	TableSchema = table.Schema
	// MetricType selects the distance function of a table.
	MetricType = table.MetricType
	// IndexParam describes an index build request.
	IndexParam = index.Param
	// IndexType enumerates index algorithms.
	IndexType = index.Type
	// DateRange is an inclusive-exclusive window of days.
	DateRange = daterange.Range
	// QueryResult is one ranked match: a vector id and its distance.
	QueryResult = topk.Hit
	// QueryHits are the matches of one query, best first.
	QueryHits = topk.QueryHits
	// RawResponse is the unmaterialized answer to a multi-query search.
	RawResponse = topk.Response
	// SearchRequest is what a Transport receives for a search.
	SearchRequest = topk.Request
)

// Metric types.
const (
	MetricL2 = table.MetricL2
	MetricIP = table.MetricIP
)

// Index types.
const (
	IndexInvalid = index.Invalid
	IndexFlat    = index.Flat
	IndexIVFFlat = index.IVFFlat
	IndexIVFSQ8  = index.IVFSQ8
	IndexMixNSG  = index.MixNSG
)

// DefaultNList is the partition count of a table that has no explicit index.
const DefaultNList = index.DefaultNList

// NewTableSchema validates and creates a TableSchema.
func NewTableSchema(name string, dimension, indexFileSize int, metric MetricType) (TableSchema, error) {
	return table.New(name, dimension, indexFileSize, metric)
}

// NewIndexParam validates and creates an IndexParam.
// IndexInvalid is rejected with ErrParam.
func NewIndexParam(tableName string, indexType IndexType, nlist int) (IndexParam, error) {
	return index.New(tableName, indexType, nlist)
}

// NewDateRange creates a DateRange from the calendar dates of start and end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	return daterange.New(start, end)
}

// ParseDateRange creates a DateRange from two "2006-01-02" dates.
func ParseDateRange(start, end string) (DateRange, error) {
	return daterange.Parse(start, end)
}
