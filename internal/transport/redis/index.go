package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vecsearch/internal/db"
	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
)

// maxEFConstruction caps the HNSW build parameter derived from nlist.
const maxEFConstruction = 4096

// buildIndex creates the FT index definition of a table. Flat tables get a
// FLAT vector field; every other index type maps to HNSW.
func buildIndex(s table.Schema, p index.Param) (*db.IndexDefinition, error) {
	distance := db.DistanceL2
	if s.MetricType() == table.MetricIP {
		distance = db.DistanceIP
	}

	b := db.NewIndex(indexName(s.Name())).Prefix(rowPrefix(s.Name()))
	if p.IndexType() == index.Flat {
		b = b.VectorFlat(fieldVector, s.Dimension(), distance, 0)
	} else {
		b = b.VectorHNSW(fieldVector, s.Dimension(), distance, min(p.NList(), maxEFConstruction))
	}
	return b.Numeric(fieldDate).Tag(fieldSegment).Build()
}

// rebuildIndex swaps the FT index of a table. Rows stay in place and are
// re-indexed by the server.
func (t *Transport) rebuildIndex(ctx context.Context, s table.Schema, p index.Param) error {
	def, err := buildIndex(s, p)
	if err != nil {
		return domain.NewStatus(domain.StatusBuildIndexError, "%v", err)
	}
	if err := t.store.DropIndex(ctx, def.Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", def.Name, err)
	}
	if err := t.store.CreateIndex(ctx, def); err != nil {
		return domain.NewStatus(domain.StatusBuildIndexError, "create index %s: %v", def.Name, err)
	}
	return nil
}

// CreateIndex rebuilds a table's index with p.
func (t *Transport) CreateIndex(ctx context.Context, p index.Param) error {
	if !p.IndexType().IsValid() {
		return domain.NewStatus(domain.StatusIllegalIndexType, "illegal index type %s", p.IndexType())
	}
	if p.NList() <= 0 {
		return domain.NewStatus(domain.StatusIllegalNList, "nlist must be positive")
	}
	meta, err := t.meta(ctx, p.TableName())
	if err != nil {
		return err
	}
	if err := t.rebuildIndex(ctx, meta.schema, p); err != nil {
		return err
	}
	if err := t.store.HSet(ctx, metaKey(p.TableName()), indexToHash(p)); err != nil {
		return fmt.Errorf("hset index of %s: %w", p.TableName(), err)
	}
	return nil
}

// DescribeIndex returns a table's index description.
func (t *Transport) DescribeIndex(ctx context.Context, name string) (index.Param, error) {
	meta, err := t.meta(ctx, name)
	if err != nil {
		return index.Param{}, err
	}
	return meta.index, nil
}

// DropIndex resets a table to the default FLAT index.
func (t *Transport) DropIndex(ctx context.Context, name string) error {
	return t.CreateIndex(ctx, index.Default(name))
}

// PreloadTable makes sure the table's index is live, recreating it from the
// metadata when it went missing.
func (t *Transport) PreloadTable(ctx context.Context, name string) error {
	meta, err := t.meta(ctx, name)
	if err != nil {
		return err
	}
	ok, err := t.store.IndexExists(ctx, indexName(name))
	if err != nil {
		return domain.NewStatus(domain.StatusCacheFailed, "check index of %s: %v", name, err)
	}
	if ok {
		return nil
	}
	return t.rebuildIndex(ctx, meta.schema, meta.index)
}
