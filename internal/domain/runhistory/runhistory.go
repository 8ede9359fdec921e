// Package runhistory records the outcome of each Preprocess+Run cycle a
// graph goes through, so an operator (or GET /runs/{id}) can see what a
// replan actually did without re-deriving it from logs. Grounded on the
// teacher's internal/domain/run package (Status enum with IsTerminal,
// Repository interface, typed events) narrowed to the one aggregate a
// scheduler process needs: a single cycle's record, not a whole
// assistant-run lifecycle.
package runhistory

import (
	"context"
	"time"

	"github.com/nodeshop/dataflow/internal/graph"
)

// Status is where a recorded cycle landed.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether s is a final state (mirrors run.Status's
// IsTerminal).
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Record is one Preprocess+Run cycle for a single graph.
type Record struct {
	ID        graph.ID
	GraphID   graph.ID
	Status    Status
	NodeCount int
	Executed  int
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration reports how long the cycle ran. A zero EndedAt (still running)
// reports zero.
func (r Record) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Started returns a new in-flight Record for graphID, timestamped at now.
func Started(graphID graph.ID, now time.Time) Record {
	return Record{
		ID:        graph.NewID(),
		GraphID:   graphID,
		Status:    StatusRunning,
		StartedAt: now,
	}
}

// Repository persists and retrieves Records (spec.md §3's external
// Persistence interface, run-history half).
type Repository interface {
	Save(ctx context.Context, rec Record) error
	FindByID(ctx context.Context, id graph.ID) (Record, bool, error)
	FindByGraphID(ctx context.Context, graphID graph.ID, limit int) ([]Record, error)
}
