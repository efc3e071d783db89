package redis

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecsearch/internal/db"
)

const scoreField = "__vector_score"

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	cmd, err := s.knnCommand(q)
	if err != nil {
		return nil, err
	}
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseKNNResult(raw, q.RawScores)
}

// SearchKNNMulti pipelines several KNN searches in one DoMulti round-trip.
// Results are parallel to qs.
func (s *Store) SearchKNNMulti(ctx context.Context, qs []*db.KNNQuery) ([]*db.SearchResult, error) {
	if len(qs) == 0 {
		return nil, nil
	}

	cmds := make(rueidis.Commands, len(qs))
	for i, q := range qs {
		cmd, err := s.knnCommand(q)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		cmds[i] = cmd
	}

	out := make([]*db.SearchResult, len(qs))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		raw, err := res.ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("query %d: %w", i, err)}
		}
		out[i], err = parseKNNResult(raw, qs[i].RawScores)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}
	return out, nil
}

func (s *Store) knnCommand(q *db.KNNQuery) (rueidis.Completed, error) {
	if q.IndexName == "" {
		return rueidis.Completed{}, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return rueidis.Completed{}, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return rueidis.Completed{}, fmt.Errorf("k must be positive")
	}

	field := q.VectorField
	if field == "" {
		field = "vector"
	}

	knnPart := fmt.Sprintf("[KNN %d @%s $BLOB", q.K, field)
	if q.EFRuntime > 0 {
		knnPart += " EF_RUNTIME " + strconv.Itoa(q.EFRuntime)
	}
	knnPart += "]"

	var queryStr string
	if q.Filter.IsEmpty() {
		queryStr = "*=>" + knnPart
	} else {
		queryStr = "(" + q.Filter.String() + ")=>" + knnPart
	}

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, scoreField)
	}

	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", VectorToBytes(q.Vector),
		"DIALECT", "2",
	)

	return s.b().Arbitrary("FT.SEARCH").Args(args...).Build(), nil
}

// SearchCount returns the document count of an index. Redis answers
// FT.SEARCH idx * LIMIT 0 0; valkey-search rejects the bare "*" query, so
// the keys under prefix are counted instead.
func (s *Store) SearchCount(ctx context.Context, index, prefix string) (int64, error) {
	if s.valkey {
		keys, err := s.Scan(ctx, prefix+"*")
		if err != nil {
			return 0, fmt.Errorf("scan for count: %w", err)
		}
		return int64(len(keys)), nil
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return total, nil
}

// --- Result parsing ---

// parseKNNResult reads [total, key1, fields1, key2, fields2, ...] and
// returns entries ordered by ascending server score.
func parseKNNResult(raw []rueidis.RedisMessage, rawScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	type scored struct {
		entry db.SearchEntry
		dist  float64
	}
	hits := make([]scored, 0, len(raw)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: parseFieldPairs(fields)}
		scoreStr, ok := entry.Fields[scoreField]
		if !ok {
			return nil, fmt.Errorf("hit %s has no %s", key, scoreField)
		}
		dist, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score of %s: %w", key, err)
		}
		delete(entry.Fields, scoreField)

		if rawScores {
			entry.Score = dist
		} else {
			entry.Score = 1.0 - dist
		}
		hits = append(hits, scored{entry: entry, dist: dist})
	}

	slices.SortStableFunc(hits, func(a, b scored) int { return cmp.Compare(a.dist, b.dist) })

	entries := make([]db.SearchEntry, len(hits))
	for i := range hits {
		entries[i] = hits[i].entry
	}
	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// VectorToBytes encodes v as little-endian float32, the layout of VECTOR
// fields and KNN query blobs.
func VectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
