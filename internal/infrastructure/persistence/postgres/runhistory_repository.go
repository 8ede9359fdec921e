package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nodeshop/dataflow/internal/domain/runhistory"
	"github.com/nodeshop/dataflow/internal/graph"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
)

// RunHistoryRepository persists runhistory.Records, implementing
// runhistory.Repository. Grounded on the teacher's RunRepository
// (internal/domain/run/repository.go's shape), narrowed to the columns a
// single planning-cycle record needs.
type RunHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewRunHistoryRepository returns a repository backed by pool.
func NewRunHistoryRepository(pool *pgxpool.Pool) *RunHistoryRepository {
	return &RunHistoryRepository{pool: pool}
}

var _ runhistory.Repository = (*RunHistoryRepository)(nil)

// Save upserts rec.
func (r *RunHistoryRepository) Save(ctx context.Context, rec runhistory.Record) error {
	endedAt := sql.NullTime{Time: rec.EndedAt, Valid: !rec.EndedAt.IsZero()}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO run_history (id, graph_id, status, node_count, executed, error, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			node_count = EXCLUDED.node_count,
			executed = EXCLUDED.executed,
			error = EXCLUDED.error,
			ended_at = EXCLUDED.ended_at
	`, rec.ID.String(), rec.GraphID.String(), string(rec.Status), rec.NodeCount, rec.Executed, rec.Error, rec.StartedAt, endedAt)
	if err != nil {
		return pkgerrors.Internal("failed to save run history record", err)
	}
	return nil
}

// FindByID loads one record by its own ID.
func (r *RunHistoryRepository) FindByID(ctx context.Context, id graph.ID) (runhistory.Record, bool, error) {
	rec, err := scanRunHistoryRow(r.pool.QueryRow(ctx, `
		SELECT id, graph_id, status, node_count, executed, error, started_at, ended_at
		FROM run_history WHERE id = $1
	`, id.String()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return runhistory.Record{}, false, nil
		}
		return runhistory.Record{}, false, pkgerrors.Internal("failed to load run history record", err)
	}
	return rec, true, nil
}

// FindByGraphID lists the most recent records for graphID, newest first.
func (r *RunHistoryRepository) FindByGraphID(ctx context.Context, graphID graph.ID, limit int) ([]runhistory.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, graph_id, status, node_count, executed, error, started_at, ended_at
		FROM run_history WHERE graph_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, graphID.String(), limit)
	if err != nil {
		return nil, pkgerrors.Internal("failed to query run history", err)
	}
	defer rows.Close()

	var out []runhistory.Record
	for rows.Next() {
		rec, err := scanRunHistoryRow(rows)
		if err != nil {
			return nil, pkgerrors.Internal("failed to scan run history record", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// rowScanner abstracts over pgx.Row and pgx.Rows, both of which expose Scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunHistoryRow(row rowScanner) (runhistory.Record, error) {
	var (
		idStr, graphIDStr, status, errText string
		nodeCount, executed                int
		startedAt                          time.Time
		endedAt                            sql.NullTime
	)

	if err := row.Scan(&idStr, &graphIDStr, &status, &nodeCount, &executed, &errText, &startedAt, &endedAt); err != nil {
		return runhistory.Record{}, err
	}

	id, err := graph.ParseID(idStr)
	if err != nil {
		return runhistory.Record{}, err
	}
	graphID, err := graph.ParseID(graphIDStr)
	if err != nil {
		return runhistory.Record{}, err
	}

	rec := runhistory.Record{
		ID:        id,
		GraphID:   graphID,
		Status:    runhistory.Status(status),
		NodeCount: nodeCount,
		Executed:  executed,
		Error:     errText,
		StartedAt: startedAt,
	}
	if endedAt.Valid {
		rec.EndedAt = endedAt.Time
	}
	return rec, nil
}
