package handler

import (
	"funnel-engine/internal/middleware"
	"funnel-engine/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type FlowHandler struct {
	flowService service.FlowService
}

func NewFlowHandler(flowService service.FlowService) *FlowHandler {
	return &FlowHandler{
		flowService: flowService,
	}
}

func (h *FlowHandler) GetFlow(c echo.Context) error {
	ctx := c.Request().Context()

	graph, err := h.flowService.GetGraph(ctx, c.Param("flowID"))
	if err != nil {
		return toHTTPError(err)
	}
	if graph.Flow.CompanyID != middleware.CompanyID(c) {
		return echo.NewHTTPError(http.StatusNotFound, service.ErrFlowNotFound.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"flow":  graph.Flow,
		"edges": graph.Edges,
	})
}

func (h *FlowHandler) DeleteNode(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.flowService.DeleteNode(ctx, middleware.CompanyID(c), c.Param("flowID"), c.Param("nodeID"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
