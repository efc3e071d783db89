package topk

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/vecsearch/internal/domain"
)

func validRequest() Request {
	return Request{
		Table:   "t",
		TopK:    10,
		NProbe:  16,
		Queries: [][]float32{{1, 2}, {3, 4}},
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		ok     bool
	}{
		{"valid", func(*Request) {}, true},
		{"empty table", func(r *Request) { r.Table = "" }, false},
		{"zero topk", func(r *Request) { r.TopK = 0 }, false},
		{"topk too large", func(r *Request) { r.TopK = MaxTopK + 1 }, false},
		{"zero nprobe", func(r *Request) { r.NProbe = 0 }, false},
		{"no queries", func(r *Request) { r.Queries = nil }, false},
		{"empty query", func(r *Request) { r.Queries = [][]float32{{}} }, false},
		{"ragged queries", func(r *Request) { r.Queries = [][]float32{{1, 2}, {3}} }, false},
		{"empty file id", func(r *Request) { r.FileIDs = []string{"0", ""} }, false},
		{"file ids", func(r *Request) { r.FileIDs = []string{"0", "3"} }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.mutate(&r)
			err := r.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, domain.ErrParam) {
				t.Fatalf("expected ErrParam, got %v", err)
			}
		})
	}
}

func TestHit_String(t *testing.T) {
	tests := []struct {
		hit  Hit
		want string
	}{
		{Hit{ID: 1, Distance: 0.1}, "(id:1, distance:0.1)"},
		{Hit{ID: -7, Distance: 2}, "(id:-7, distance:2)"},
		{Hit{ID: 42, Distance: 0.25}, "(id:42, distance:0.25)"},
	}
	for _, tc := range tests {
		if got := tc.hit.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
