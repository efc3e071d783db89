package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/vecsearch/internal/domain/daterange"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
)

// Key patterns: vecsearch:meta:{table}[:seq|:rows], vecsearch:rows:{table}:{id},
// vecsearch:idx:{table}.
const (
	keyPrefix  = "vecsearch:"
	metaPrefix = keyPrefix + "meta:"
)

// Row hash fields.
const (
	fieldVector  = "vector"
	fieldID      = "id"
	fieldDate    = "date"
	fieldSegment = "segment"
)

const (
	idModeAuto   = "auto"
	idModeCaller = "caller"
)

const mib = 1 << 20

func metaKey(name string) string { return metaPrefix + name }
func seqKey(name string) string { return metaPrefix + name + ":seq" }
func rowCountKey(name string) string { return metaPrefix + name + ":rows" }
func indexName(name string) string { return keyPrefix + "idx:" + name }
func rowPrefix(name string) string { return keyPrefix + "rows:" + name + ":" }

func rowKey(name string, id int64) string {
	return rowPrefix(name) + strconv.FormatInt(id, 10)
}

// tableMeta is the metadata hash of a table.
type tableMeta struct {
	schema table.Schema
	index  index.Param
	idMode string
}

func schemaToHash(s table.Schema, p index.Param) map[string]string {
	return map[string]string{
		"name":            s.Name(),
		"dimension":       strconv.Itoa(s.Dimension()),
		"index_file_size": strconv.Itoa(s.IndexFileSize()),
		"metric_type":     strconv.Itoa(int(s.MetricType())),
		"index_type":      strconv.Itoa(int(p.IndexType())),
		"nlist":           strconv.Itoa(p.NList()),
	}
}

func indexToHash(p index.Param) map[string]string {
	return map[string]string{
		"index_type": strconv.Itoa(int(p.IndexType())),
		"nlist":      strconv.Itoa(p.NList()),
	}
}

// metaFromHash hydrates table metadata from an HGETALL result map.
func metaFromHash(m map[string]string) (tableMeta, error) {
	ints := make(map[string]int, 5)
	for _, k := range []string{"dimension", "index_file_size", "metric_type", "index_type", "nlist"} {
		v, err := strconv.Atoi(m[k])
		if err != nil {
			return tableMeta{}, fmt.Errorf("invalid %s: %w", k, err)
		}
		ints[k] = v
	}
	name := m["name"]
	return tableMeta{
		schema: table.Reconstruct(name, ints["dimension"], ints["index_file_size"],
			table.MetricType(ints["metric_type"])),
		index:  index.Reconstruct(name, index.Type(ints["index_type"]), ints["nlist"]),
		idMode: m["id_mode"],
	}, nil
}

// rowsPerSegment is how many rows of s fit into one index file.
func rowsPerSegment(s table.Schema) int64 {
	rowBytes := int64(s.Dimension()) * 4
	return max(1, int64(s.IndexFileSize())*mib/rowBytes)
}

func segmentOf(ordinal, perSegment int64) string {
	return strconv.FormatInt(ordinal/perSegment, 10)
}

// dayNumber renders the day of t as yyyymmdd.
func dayNumber(t time.Time) int {
	d := daterange.Day(t)
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}
