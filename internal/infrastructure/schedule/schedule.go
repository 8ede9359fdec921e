// Package schedule periodically re-plans and re-executes registered
// graphs, the background-worker half of spec.md §3's "something outside
// the library decides when to call Preprocess again". No teacher file
// does this directly — robfig/cron appears in the teacher's go.mod but
// nowhere in its own code — so this package is modeled on the
// goroutine-plus-ticker wiring style cmd/server/main.go uses for its
// OutboxRelay and CleanupWorker background workers, with robfig/cron's
// Cron type taking the place of the teacher's raw time.Ticker so a
// deployment can express "every 30s" or "at the top of every hour" as a
// cron expression instead of a fixed Go duration.
package schedule

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/nodeshop/dataflow/internal/domain/runhistory"
	"github.com/nodeshop/dataflow/internal/graph"
	"github.com/nodeshop/dataflow/internal/plan"
)

// Runner performs one planning+execution cycle for a graph — satisfied
// by httpapi.Service.RunCycle.
type Runner interface {
	RunCycle(ctx context.Context, graphID graph.ID) (runhistory.Record, *plan.RuntimeGraph, error)
}

// Scheduler re-runs a fixed set of graphs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger
}

// New returns a Scheduler that will invoke runner.RunCycle for each graph
// registered via Watch, according to each graph's own cron spec.
func New(runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		logger: logger,
	}
}

// Watch schedules graphID to be re-planned and re-executed according to
// spec, a standard five-field-plus-seconds cron expression (e.g.
// "0 */30 * * * *" for every 30 minutes). Returns the entry ID so the
// caller can Unwatch it later.
func (s *Scheduler) Watch(spec string, graphID graph.ID) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		ctx := context.Background()
		rec, _, err := s.runner.RunCycle(ctx, graphID)
		if err != nil {
			s.logger.Error("scheduled run cycle failed", "graph_id", graphID.String(), "error", err)
			return
		}
		s.logger.Info("scheduled run cycle completed",
			"graph_id", graphID.String(), "run_id", rec.ID.String(), "status", rec.Status)
	})
}

// Unwatch removes a previously scheduled entry.
func (s *Scheduler) Unwatch(id cron.EntryID) {
	s.cron.Remove(id)
}

// Start begins running scheduled jobs in the background. Stop must be
// called to release the goroutine it starts.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler without waiting; the returned context is done
// once any in-flight job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
