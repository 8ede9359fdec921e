// Package dto holds the wire-level response shapes for the control
// plane's HTTP API, kept separate from the domain types the way the
// teacher's internal/infrastructure/http/dto package does (dto/worker.go,
// dto/langgraph.go never alias domain structs directly). Requests that
// are themselves a graph document are read straight off the body with
// graph.FromJSON instead of being re-declared here — the graph package
// already owns that wire shape.
package dto

import "time"

// CreateGraphResponse is returned by POST /graphs.
type CreateGraphResponse struct {
	GraphID string `json:"graph_id"`
}

// CreateRunResponse is returned by POST /graphs/{id}/runs.
type CreateRunResponse struct {
	RunID     string `json:"run_id"`
	GraphID   string `json:"graph_id"`
	Status    string `json:"status"`
	Executed  int    `json:"executed"`
	NodeCount int    `json:"node_count"`
}

// GetRunResponse is returned by GET /runs/{id}.
type GetRunResponse struct {
	RunID       string     `json:"run_id"`
	GraphID     string     `json:"graph_id"`
	Status      string     `json:"status"`
	NodeCount   int        `json:"node_count"`
	Executed    int        `json:"executed"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
}

// ListRunsResponse is returned by GET /graphs/{id}/runs.
type ListRunsResponse struct {
	Runs []GetRunResponse `json:"runs"`
}
