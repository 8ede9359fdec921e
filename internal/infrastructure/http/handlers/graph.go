package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nodeshop/dataflow/internal/graph"
	httpapi "github.com/nodeshop/dataflow/internal/infrastructure/http"
	"github.com/nodeshop/dataflow/internal/infrastructure/http/dto"
	pkgerrors "github.com/nodeshop/dataflow/internal/pkg/errors"
)

// GraphHandler serves the graph-registration endpoint, grounded on the
// teacher's handlers.RunHandler shape (a thin struct wrapping the
// application layer, one method per route) but pointed at
// httpapi.Service directly since this domain has no CQRS command bus.
type GraphHandler struct {
	service *httpapi.Service
}

// NewGraphHandler returns a handler backed by service.
func NewGraphHandler(service *httpapi.Service) *GraphHandler {
	return &GraphHandler{service: service}
}

// CreateGraph handles POST /graphs: the body is a graph document in
// graph.Graph's own ToJSON wire shape. The graph is validated and stored;
// the response carries the ID the graph was registered under.
func (h *GraphHandler) CreateGraph(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return pkgerrors.ValidationFailed("failed to read request body")
	}

	g, err := graph.FromJSON(body)
	if err != nil {
		return pkgerrors.ValidationFailed("malformed graph document: " + err.Error())
	}

	id, err := h.service.RegisterGraph(c.Request().Context(), g)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.CreateGraphResponse{GraphID: id.String()})
}
