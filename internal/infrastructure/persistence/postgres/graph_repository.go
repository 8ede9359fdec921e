package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodeshop/dataflow/internal/graph"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
)

// GraphRepository stores validated Graph documents, grounded on the
// teacher's GraphRepository (internal/infrastructure/persistence/postgres/
// graph_repository.go) but storing the whole Graph as one JSONB column via
// Graph's own ToJSON/FromJSON codec, since the aggregate already owns a
// canonical wire format — reproducing the teacher's per-field nodes/edges/
// config columns here would just be a second, divergent codec for the same
// document.
type GraphRepository struct {
	pool *pgxpool.Pool
}

// NewGraphRepository returns a repository backed by pool.
func NewGraphRepository(pool *pgxpool.Pool) *GraphRepository {
	return &GraphRepository{pool: pool}
}

// Save inserts g, or replaces it if a graph with the same ID already
// exists (upsert, matching Graph.AddNode's own replace-in-place
// semantics).
func (r *GraphRepository) Save(ctx context.Context, g *graph.Graph, id graph.ID) error {
	doc, err := g.ToJSON()
	if err != nil {
		return pkgerrors.Internal("failed to encode graph", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO graphs (id, document, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()
	`, id.String(), doc)
	if err != nil {
		return pkgerrors.Internal("failed to save graph", err)
	}
	return nil
}

// FindByID loads the graph stored under id.
func (r *GraphRepository) FindByID(ctx context.Context, id graph.ID) (*graph.Graph, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT document FROM graphs WHERE id = $1`, id.String()).Scan(&doc)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, pkgerrors.NotFound("graph", id.String())
		}
		return nil, pkgerrors.Internal("failed to load graph", err)
	}

	g, err := graph.FromJSON(doc)
	if err != nil {
		return nil, pkgerrors.Internal("failed to decode graph", err)
	}
	return g, nil
}

// Delete removes the graph stored under id, cascading to its runtime
// snapshot and run history rows.
func (r *GraphRepository) Delete(ctx context.Context, id graph.ID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM graphs WHERE id = $1`, id.String())
	if err != nil {
		return pkgerrors.Internal("failed to delete graph", err)
	}
	return nil
}
