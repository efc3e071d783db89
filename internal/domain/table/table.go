package table

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/vecsearch/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Limits enforced by New.
const (
	MaxNameLength = 255
	MaxDimension  = 32768
)

// MetricType selects the distance function of a table.
type MetricType int

const (
	// MetricInvalid is the zero value and never valid.
	MetricInvalid MetricType = 0
	// MetricL2 is squared Euclidean distance, smaller is closer.
	MetricL2 MetricType = 1
	// MetricIP is inner product, larger is closer.
	MetricIP MetricType = 2
)

// IsValid reports whether m is L2 or IP.
func (m MetricType) IsValid() bool {
	return m == MetricL2 || m == MetricIP
}

func (m MetricType) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricIP:
		return "IP"
	default:
		return fmt.Sprintf("MetricType(%d)", int(m))
	}
}

// ParseMetricType accepts "L2" or "IP".
func ParseMetricType(s string) (MetricType, error) {
	switch s {
	case "L2", "l2":
		return MetricL2, nil
	case "IP", "ip":
		return MetricIP, nil
	}
	return MetricInvalid, domain.Paramf("unknown metric type %q", s)
}

// Schema describes a vector table (immutable value object).
type Schema struct {
	name          string
	dimension     int
	indexFileSize int
	metricType    MetricType
}

// ValidateName checks a table name: ^[a-zA-Z0-9_-]+$, 1-255 chars.
func ValidateName(name string) error {
	if name == "" {
		return domain.Paramf("table name is required")
	}
	if len(name) > MaxNameLength {
		return domain.Paramf("table name too long (max %d)", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return domain.Paramf("table name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a Schema.
func New(name string, dimension, indexFileSize int, metric MetricType) (Schema, error) {
	if err := ValidateName(name); err != nil {
		return Schema{}, err
	}
	if dimension <= 0 || dimension > MaxDimension {
		return Schema{}, domain.Paramf("dimension must be in [1, %d], got %d", MaxDimension, dimension)
	}
	if indexFileSize <= 0 {
		return Schema{}, domain.Paramf("index file size must be positive, got %d", indexFileSize)
	}
	if !metric.IsValid() {
		return Schema{}, domain.Paramf("invalid metric type %d", int(metric))
	}
	return Schema{
		name:          name,
		dimension:     dimension,
		indexFileSize: indexFileSize,
		metricType:    metric,
	}, nil
}

// Reconstruct restores a Schema from storage without validation.
func Reconstruct(name string, dimension, indexFileSize int, metric MetricType) Schema {
	return Schema{
		name:          name,
		dimension:     dimension,
		indexFileSize: indexFileSize,
		metricType:    metric,
	}
}

// Name returns the table name.
func (s Schema) Name() string { return s.name }

// Dimension returns the vector dimension.
func (s Schema) Dimension() int { return s.dimension }

// IndexFileSize returns the segment size in MiB.
func (s Schema) IndexFileSize() int { return s.indexFileSize }

// MetricType returns the distance metric.
func (s Schema) MetricType() MetricType { return s.metricType }

// IsZero reports whether s is the zero Schema.
func (s Schema) IsZero() bool { return s.name == "" }

func (s Schema) String() string {
	return fmt.Sprintf("TableSchema(table_name=%q, dimension=%d, index_file_size=%d, metric_type=%s)",
		s.name, s.dimension, s.indexFileSize, s.metricType)
}
