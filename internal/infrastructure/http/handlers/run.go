package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nodeshop/dataflow/internal/domain/runhistory"
	"github.com/nodeshop/dataflow/internal/graph"
	httpapi "github.com/nodeshop/dataflow/internal/infrastructure/http"
	"github.com/nodeshop/dataflow/internal/infrastructure/http/dto"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
)

// RunHandler serves the run-cycle endpoints, narrowed from the teacher's
// RunHandler (run.go) down to the four verbs SPEC_FULL.md's control
// plane actually needs: trigger a cycle, read one back, list recent ones,
// and fetch the stored snapshot.
type RunHandler struct {
	service *httpapi.Service
}

// NewRunHandler returns a handler backed by service.
func NewRunHandler(service *httpapi.Service) *RunHandler {
	return &RunHandler{service: service}
}

// CreateRun handles POST /graphs/{id}/runs: plan and execute one cycle
// against the stored graph, synchronously — spec.md §5 requires the
// scheduler be single-threaded and synchronous, so unlike the teacher's
// CreateRun (which forks a goroutine and returns "queued" immediately),
// this handler runs the cycle inline and returns its outcome.
func (h *RunHandler) CreateRun(c echo.Context) error {
	graphID, err := graph.ParseID(c.Param("id"))
	if err != nil {
		return pkgerrors.ValidationFailed("invalid graph id: " + err.Error())
	}

	rec, _, err := h.service.RunCycle(c.Request().Context(), graphID)
	if err != nil {
		if rec.ID != graph.NilID {
			return c.JSON(http.StatusUnprocessableEntity, runToResponse(rec))
		}
		return err
	}

	return c.JSON(http.StatusCreated, dto.CreateRunResponse{
		RunID:     rec.ID.String(),
		GraphID:   rec.GraphID.String(),
		Status:    string(rec.Status),
		Executed:  rec.Executed,
		NodeCount: rec.NodeCount,
	})
}

// GetRun handles GET /runs/{id}.
func (h *RunHandler) GetRun(c echo.Context) error {
	runID, err := graph.ParseID(c.Param("id"))
	if err != nil {
		return pkgerrors.ValidationFailed("invalid run id: " + err.Error())
	}

	rec, err := h.service.GetRun(c.Request().Context(), runID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, runToResponse(rec))
}

// ListRuns handles GET /graphs/{id}/runs.
func (h *RunHandler) ListRuns(c echo.Context) error {
	graphID, err := graph.ParseID(c.Param("id"))
	if err != nil {
		return pkgerrors.ValidationFailed("invalid graph id: " + err.Error())
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	recs, err := h.service.ListRuns(c.Request().Context(), graphID, limit)
	if err != nil {
		return err
	}

	resp := dto.ListRunsResponse{Runs: make([]dto.GetRunResponse, len(recs))}
	for i, rec := range recs {
		resp.Runs[i] = runToResponse(rec)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSnapshot handles GET /runs/{id}/snapshot, a diagnostics endpoint
// returning, in its own wire format, the most recent RuntimeGraph stored
// for the run's graph. Snapshots are kept per graph, not per run, so once
// a later cycle of the same graph has run, this returns that later
// cycle's RuntimeGraph rather than the one the requested run produced.
func (h *RunHandler) GetSnapshot(c echo.Context) error {
	runID, err := graph.ParseID(c.Param("id"))
	if err != nil {
		return pkgerrors.ValidationFailed("invalid run id: " + err.Error())
	}

	rec, err := h.service.GetRun(c.Request().Context(), runID)
	if err != nil {
		return err
	}

	rt, ok, err := h.service.Snapshot(c.Request().Context(), rec.GraphID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.NotFound("snapshot", runID.String())
	}
	return c.JSONBlob(http.StatusOK, mustJSON(rt))
}

func runToResponse(rec runhistory.Record) dto.GetRunResponse {
	resp := dto.GetRunResponse{
		RunID:     rec.ID.String(),
		GraphID:   rec.GraphID.String(),
		Status:    string(rec.Status),
		NodeCount: rec.NodeCount,
		Executed:  rec.Executed,
		Error:     rec.Error,
		StartedAt: rec.StartedAt,
	}
	if !rec.EndedAt.IsZero() {
		ended := rec.EndedAt
		resp.EndedAt = &ended
		resp.DurationMS = rec.Duration().Milliseconds()
	}
	return resp
}

func mustJSON(rt interface{ ToJSON() ([]byte, error) }) []byte {
	data, err := rt.ToJSON()
	if err != nil {
		return []byte(`{}`)
	}
	return data
}
