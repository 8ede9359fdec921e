// Package postgres implements spec.md §6's external Persistence interface:
// it stores validated Graph documents and the RuntimeGraph snapshots
// produced each planning cycle, so a later process can reload the most
// recent snapshot as Preprocess's prev argument. Grounded on the
// teacher's internal/infrastructure/persistence/postgres/db.go (pool
// construction) and graph_repository.go (the repository shape), adapted
// to store both aggregates as JSONB documents rather than per-field CRUD
// columns — Graph and RuntimeGraph already have their own canonical JSON
// codecs (internal/graph/codec.go, internal/plan/codec.go), so the
// repository's job is persistence, not re-deriving a column mapping.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the settings needed to open a connection pool.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// NewPool opens a pgx connection pool against cfg, pings it once, and
// returns it ready for use. Mirrors the teacher's pool-sizing defaults.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}

// Close releases the pool's connections.
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
