package table

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecsearch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	tests := []struct {
		name   string
		dim    int
		size   int
		metric MetricType
	}{
		{"vectors", 128, 1024, MetricL2},
		{"a", 1, 1, MetricIP},
		{"with-dash_and_underscore", MaxDimension, 4096, MetricL2},
		{strings.Repeat("x", MaxNameLength), 16, 1, MetricIP},
	}
	for _, tc := range tests {
		s, err := New(tc.name, tc.dim, tc.size, tc.metric)
		if err != nil {
			t.Fatalf("New(%q): unexpected error: %v", tc.name, err)
		}
		if s.Name() != tc.name || s.Dimension() != tc.dim ||
			s.IndexFileSize() != tc.size || s.MetricType() != tc.metric {
			t.Errorf("New(%q) round trip mismatch: %v", tc.name, s)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		desc   string
		name   string
		dim    int
		size   int
		metric MetricType
	}{
		{"empty name", "", 8, 1, MetricL2},
		{"bad chars", "has space", 8, 1, MetricL2},
		{"too long", strings.Repeat("x", MaxNameLength+1), 8, 1, MetricL2},
		{"zero dim", "t", 0, 1, MetricL2},
		{"negative dim", "t", -3, 1, MetricL2},
		{"dim too large", "t", MaxDimension + 1, 1, MetricL2},
		{"zero file size", "t", 8, 0, MetricL2},
		{"invalid metric", "t", 8, 1, MetricInvalid},
		{"unknown metric", "t", 8, 1, MetricType(9)},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := New(tc.name, tc.dim, tc.size, tc.metric)
			if !errors.Is(err, domain.ErrParam) {
				t.Fatalf("expected ErrParam, got %v", err)
			}
		})
	}
}

func TestReconstruct_SkipsValidation(t *testing.T) {
	s := Reconstruct("", 0, 0, MetricInvalid)
	if !s.IsZero() {
		t.Errorf("expected zero schema, got %v", s)
	}
}

func TestParseMetricType(t *testing.T) {
	if m, err := ParseMetricType("IP"); err != nil || m != MetricIP {
		t.Errorf("ParseMetricType(IP) = %v, %v", m, err)
	}
	if _, err := ParseMetricType("COSINE"); !errors.Is(err, domain.ErrParam) {
		t.Errorf("expected ErrParam, got %v", err)
	}
}

func TestSchema_String(t *testing.T) {
	s, _ := New("t1", 4, 16, MetricIP)
	want := `TableSchema(table_name="t1", dimension=4, index_file_size=16, metric_type=IP)`
	if s.String() != want {
		t.Errorf("String() = %q, want %q", s.String(), want)
	}
}
