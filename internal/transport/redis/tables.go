package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/vecsearch/internal/db"
	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
)

func tableNotExists(name string) error {
	return domain.NewStatus(domain.StatusTableNotExists, "table %s not exists", name)
}

// meta loads the metadata of a table.
func (t *Transport) meta(ctx context.Context, name string) (tableMeta, error) {
	m, err := t.store.HGetAll(ctx, metaKey(name))
	if errors.Is(err, db.ErrKeyNotFound) || (err == nil && len(m) == 0) {
		return tableMeta{}, tableNotExists(name)
	}
	if err != nil {
		return tableMeta{}, fmt.Errorf("hgetall table %s: %w", name, err)
	}
	meta, err := metaFromHash(m)
	if err != nil {
		return tableMeta{}, domain.NewStatus(domain.StatusMetaFailed, "table %s: %v", name, err)
	}
	return meta, nil
}

// CreateTable stores the metadata hash, then creates the FT index.
// The hash is removed again when FT.CREATE fails.
func (t *Transport) CreateTable(ctx context.Context, s table.Schema) error {
	if s.IsZero() {
		return domain.NewStatus(domain.StatusIllegalTableName, "table schema is empty")
	}
	name := s.Name()
	exists, err := t.store.Exists(ctx, metaKey(name))
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.NewStatus(domain.StatusTableExists, "table %s already exists", name)
	}

	p := index.Default(name)
	def, err := buildIndex(s, p)
	if err != nil {
		return domain.NewStatus(domain.StatusBuildIndexError, "%v", err)
	}

	if err := t.store.HSet(ctx, metaKey(name), schemaToHash(s, p)); err != nil {
		return fmt.Errorf("hset table %s: %w", name, err)
	}
	if err := t.store.CreateIndex(ctx, def); err != nil {
		cleanupErr := t.store.Del(ctx, metaKey(name))
		if errors.Is(err, db.ErrIndexExists) {
			err = domain.NewStatus(domain.StatusTableExists, "index of table %s already exists", name)
		}
		return errors.Join(err, cleanupErr)
	}
	return nil
}

// HasTable reports whether the metadata hash exists.
func (t *Transport) HasTable(ctx context.Context, name string) (bool, error) {
	ok, err := t.store.Exists(ctx, metaKey(name))
	if err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	return ok, nil
}

// DeleteTable drops the index, then deletes rows, counters, and metadata.
func (t *Transport) DeleteTable(ctx context.Context, name string) error {
	if _, err := t.meta(ctx, name); err != nil {
		return err
	}
	if err := t.store.DropIndex(ctx, indexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index of %s: %w", name, err)
	}
	rows, err := t.store.Scan(ctx, rowPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan rows of %s: %w", name, err)
	}
	if err := t.store.Del(ctx, rows...); err != nil {
		return fmt.Errorf("del rows of %s: %w", name, err)
	}
	if err := t.store.Del(ctx, seqKey(name), rowCountKey(name), metaKey(name)); err != nil {
		return fmt.Errorf("del table %s: %w", name, err)
	}
	return nil
}

// DescribeTable returns a table's schema.
func (t *Transport) DescribeTable(ctx context.Context, name string) (table.Schema, error) {
	meta, err := t.meta(ctx, name)
	if err != nil {
		return table.Schema{}, err
	}
	return meta.schema, nil
}

// CountTable returns the number of indexed rows.
func (t *Transport) CountTable(ctx context.Context, name string) (int64, error) {
	if _, err := t.meta(ctx, name); err != nil {
		return 0, err
	}
	n, err := t.store.SearchCount(ctx, indexName(name), rowPrefix(name))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

// ListTables returns table names in lexical order.
func (t *Transport) ListTables(ctx context.Context) ([]string, error) {
	keys, err := t.store.Scan(ctx, metaPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan tables: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimPrefix(k, metaPrefix)
		if strings.Contains(name, ":") {
			continue // counters
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
