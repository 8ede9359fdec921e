package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodeshop/dataflow/internal/graph"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
	"github.com/nodeshop/dataflow/internal/plan"
)

// SnapshotRepository stores the most recent RuntimeGraph produced for a
// graph, so a later process can reload it as Preprocess's prev argument
// instead of cold-starting every node (spec.md §6's "the RuntimeGraph ...
// must be serializable for diagnostics", extended here to double as the
// warm-restart snapshot spec.md §3 calls Persistence's job). One row per
// graph — a snapshot is replaced wholesale each cycle, never versioned.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository returns a repository backed by pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save replaces the stored snapshot for graphID with rt.
func (r *SnapshotRepository) Save(ctx context.Context, graphID graph.ID, rt *plan.RuntimeGraph) error {
	doc, err := rt.ToJSON()
	if err != nil {
		return pkgerrors.Internal("failed to encode runtime snapshot", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO runtime_snapshots (graph_id, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (graph_id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()
	`, graphID.String(), doc)
	if err != nil {
		return pkgerrors.Internal("failed to save runtime snapshot", err)
	}
	return nil
}

// Load returns the last stored snapshot for graphID, or (nil, false) if
// none exists yet — the caller should pass a nil prev to Preprocess in
// that case, the same as a graph's first cycle.
func (r *SnapshotRepository) Load(ctx context.Context, graphID graph.ID) (*plan.RuntimeGraph, bool, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT document FROM runtime_snapshots WHERE graph_id = $1`, graphID.String()).Scan(&doc)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Internal("failed to load runtime snapshot", err)
	}

	rt, err := plan.SnapshotFromJSON(doc)
	if err != nil {
		return nil, false, pkgerrors.Internal("failed to decode runtime snapshot", err)
	}
	return rt, true, nil
}
