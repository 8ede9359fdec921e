// Service wires graph storage, planning, execution, and run history
// together behind the operations the HTTP handlers (and the cmd/dataflow
// CLI) both need, mirroring the teacher's application/service.RunService
// as the one place request handling and the domain model meet — except
// this service has no command/query-handler indirection layered in front
// of it, since SPEC_FULL.md's control plane is five operations wide, not
// a CQRS-sized surface.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nodeshop/dataflow/internal/domain/runhistory"
	"github.com/nodeshop/dataflow/internal/execute"
	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/infrastructure/schedule"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
	"github.com/nodeshop/dataflow/internal/plan"
)

// GraphStore persists validated graphs, satisfied by
// postgres.GraphRepository.
type GraphStore interface {
	Save(ctx context.Context, g *graph.Graph, id graph.ID) error
	FindByID(ctx context.Context, id graph.ID) (*graph.Graph, error)
}

// SnapshotStore persists/loads the last RuntimeGraph per graph ID,
// satisfied by cache.SnapshotCache or postgres.SnapshotRepository
// directly.
type SnapshotStore interface {
	Save(ctx context.Context, graphID graph.ID, rt *plan.RuntimeGraph) error
	Load(ctx context.Context, graphID graph.ID) (*plan.RuntimeGraph, bool, error)
}

// Service implements the dataflow control plane: register a graph, run a
// planning+execution cycle against it, and look up past cycles.
type Service struct {
	Graphs    GraphStore
	Snapshots SnapshotStore
	History   runhistory.Repository
	Invoker   func() (*execute.Executor, *execute.ContextStore)
	Logger    *slog.Logger

	// Scheduler and ScheduleSpec are optional: when both are set, every
	// newly registered graph is also handed to the cron replan loop so it
	// keeps re-planning on its own, in addition to being runnable on demand
	// via RunCycle.
	Scheduler    *schedule.Scheduler
	ScheduleSpec string
}

// RegisterGraph validates g and stores it under a freshly minted graph ID.
func (s *Service) RegisterGraph(ctx context.Context, g *graph.Graph) (graph.ID, error) {
	if err := g.Validate(); err != nil {
		return graph.NilID, err
	}
	id := graph.NewID()
	if err := s.Graphs.Save(ctx, g, id); err != nil {
		return graph.NilID, err
	}
	if s.Scheduler != nil && s.ScheduleSpec != "" {
		if _, err := s.Scheduler.Watch(s.ScheduleSpec, id); err != nil {
			s.logf("failed to schedule graph %s for periodic replan: %v", id, err)
		}
	}
	return id, nil
}

// RunCycle loads graphID, replans it against its last snapshot (if any),
// executes the plan, records the outcome, and saves the fresh RuntimeGraph
// via Snapshots so the next cycle can warm-start from it. It returns the
// completed runhistory.Record and that RuntimeGraph.
func (s *Service) RunCycle(ctx context.Context, graphID graph.ID) (runhistory.Record, *plan.RuntimeGraph, error) {
	g, err := s.Graphs.FindByID(ctx, graphID)
	if err != nil {
		return runhistory.Record{}, nil, err
	}

	prev, _, err := s.Snapshots.Load(ctx, graphID)
	if err != nil {
		return runhistory.Record{}, nil, err
	}

	rec := runhistory.Started(graphID, time.Now())
	if err := s.History.Save(ctx, rec); err != nil {
		return runhistory.Record{}, nil, err
	}

	rt := plan.Preprocess(g, prev)
	rec.NodeCount = len(rt.Nodes)

	executor, store := s.Invoker()
	runErr := executor.Run(ctx, g, rt, store)

	rec.EndedAt = time.Now()
	for _, n := range rt.Nodes {
		if n.ShouldExecute {
			rec.Executed++
		}
	}

	switch {
	case runErr != nil:
		rec.Status = runhistory.StatusFailed
		rec.Error = runErr.Error()
	case ctx.Err() != nil:
		rec.Status = runhistory.StatusCancelled
	default:
		rec.Status = runhistory.StatusSucceeded
	}

	if err := s.History.Save(ctx, rec); err != nil {
		return rec, rt, err
	}
	if err := s.Snapshots.Save(ctx, graphID, rt); err != nil {
		return rec, rt, err
	}

	if runErr != nil {
		return rec, rt, pkgerrors.Internal("run cycle failed", runErr)
	}
	return rec, rt, nil
}

// GetRun looks up a previously recorded cycle.
func (s *Service) GetRun(ctx context.Context, runID graph.ID) (runhistory.Record, error) {
	rec, ok, err := s.History.FindByID(ctx, runID)
	if err != nil {
		return runhistory.Record{}, err
	}
	if !ok {
		return runhistory.Record{}, pkgerrors.NotFound("run", runID.String())
	}
	return rec, nil
}

// ListRuns returns up to limit of graphID's most recent cycles.
func (s *Service) ListRuns(ctx context.Context, graphID graph.ID, limit int) ([]runhistory.Record, error) {
	return s.History.FindByGraphID(ctx, graphID, limit)
}

// Snapshot returns the most recent RuntimeGraph stored for graphID, for
// the diagnostics endpoint.
func (s *Service) Snapshot(ctx context.Context, graphID graph.ID) (*plan.RuntimeGraph, bool, error) {
	return s.Snapshots.Load(ctx, graphID)
}

func (s *Service) logf(format string, args ...any) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(fmt.Sprintf(format, args...))
}
