// Package topk holds the request and raw response types of a top-k search.
package topk

import (
	"strconv"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/daterange"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
)

// Search limits.
const (
	MaxTopK   = 2048
	MaxNProbe = 16384
)

// Hit is one ranked match.
type Hit struct {
	ID       int64   `json:"id"`
	Distance float32 `json:"distance"`
}

func (h Hit) String() string {
	return "(id:" + strconv.FormatInt(h.ID, 10) +
		", distance:" + strconv.FormatFloat(float64(h.Distance), 'g', -1, 32) + ")"
}

// QueryHits are the matches of one query, best first.
type QueryHits []Hit

// Response is the raw answer to a multi-query search, one entry per query
// in submission order.
type Response struct {
	Queries []QueryHits `json:"queries"`
}

// Request is a validated top-k search.
type Request struct {
	Table   string
	TopK    int
	NProbe  int
	Queries [][]float32
	Ranges  []daterange.Range
	FileIDs []string
}

// Validate checks the request shape. It does not know the table dimension.
func (r *Request) Validate() error {
	if err := table.ValidateName(r.Table); err != nil {
		return err
	}
	if r.TopK <= 0 || r.TopK > MaxTopK {
		return domain.Paramf("top_k must be in [1, %d], got %d", MaxTopK, r.TopK)
	}
	if r.NProbe <= 0 || r.NProbe > MaxNProbe {
		return domain.Paramf("nprobe must be in [1, %d], got %d", MaxNProbe, r.NProbe)
	}
	if len(r.Queries) == 0 {
		return domain.Paramf("at least one query vector is required")
	}
	dim := len(r.Queries[0])
	for i, q := range r.Queries {
		if len(q) == 0 {
			return domain.Paramf("query %d is empty", i)
		}
		if len(q) != dim {
			return domain.Paramf("query %d has dimension %d, query 0 has %d", i, len(q), dim)
		}
	}
	for i, id := range r.FileIDs {
		if id == "" {
			return domain.Paramf("file id %d is empty", i)
		}
	}
	return nil
}

// Dimension returns the dimension of the queries, 0 when there are none.
func (r *Request) Dimension() int {
	if len(r.Queries) == 0 {
		return 0
	}
	return len(r.Queries[0])
}
