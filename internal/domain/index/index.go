package index

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
)

// DefaultNList is the partition count used when a table has no explicit index.
const DefaultNList = 16384

// Type enumerates index algorithms.
type Type int

const (
	// Invalid is the zero value, rejected by New.
	Invalid Type = 0
	// Flat is exhaustive search.
	Flat Type = 1
	// IVFFlat partitions vectors into nlist cells.
	IVFFlat Type = 2
	// IVFSQ8 is IVFFlat with scalar-quantized vectors.
	IVFSQ8 Type = 3
	// MixNSG is a navigating spreading-out graph.
	MixNSG Type = 4
)

var typeNames = map[Type]string{
	Invalid: "INVALID",
	Flat:    "FLAT",
	IVFFlat: "IVFFLAT",
	IVFSQ8:  "IVF_SQ8",
	MixNSG:  "MIX_NSG",
}

// IsValid reports whether t is a buildable index type.
func (t Type) IsValid() bool {
	return t >= Flat && t <= MixNSG
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("IndexType(%d)", int(t))
}

// ParseType accepts the names produced by Type.String, case-insensitively.
func ParseType(s string) (Type, error) {
	for t, n := range typeNames {
		if t != Invalid && strings.EqualFold(n, s) {
			return t, nil
		}
	}
	return Invalid, domain.Paramf("unknown index type %q", s)
}

// Param describes an index build request (immutable value object).
type Param struct {
	tableName string
	indexType Type
	nlist     int
}

// New validates and creates a Param.
func New(tableName string, indexType Type, nlist int) (Param, error) {
	if err := table.ValidateName(tableName); err != nil {
		return Param{}, err
	}
	if !indexType.IsValid() {
		return Param{}, domain.Paramf("illegal index type %s", indexType)
	}
	if nlist <= 0 {
		return Param{}, domain.Paramf("nlist must be positive, got %d", nlist)
	}
	return Param{tableName: tableName, indexType: indexType, nlist: nlist}, nil
}

// Default returns the index every table starts with.
func Default(tableName string) Param {
	return Param{tableName: tableName, indexType: Flat, nlist: DefaultNList}
}

// Reconstruct restores a Param from storage without validation.
func Reconstruct(tableName string, indexType Type, nlist int) Param {
	return Param{tableName: tableName, indexType: indexType, nlist: nlist}
}

// TableName returns the target table.
func (p Param) TableName() string { return p.tableName }

// IndexType returns the index algorithm.
func (p Param) IndexType() Type { return p.indexType }

// NList returns the partition count.
func (p Param) NList() int { return p.nlist }

func (p Param) String() string {
	return fmt.Sprintf("IndexParam(table_name=%q, index_type=%s, nlist=%d)", p.tableName, p.indexType, p.nlist)
}
