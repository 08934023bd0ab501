package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/service"
)

// RouteHandler handles navigation endpoints.
type RouteHandler struct {
	routes *service.RouteService
}

// NewRouteHandler creates a new route handler.
func NewRouteHandler(routes *service.RouteService) *RouteHandler {
	return &RouteHandler{routes: routes}
}

// RouteRequest is the POST /route body.
type RouteRequest struct {
	Origin      *domain.LatLng `json:"origin" binding:"required"`
	Destination string         `json:"destination" binding:"required"`
}

// GetRoute handles POST /api/v1/route.
func (h *RouteHandler) GetRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.routes.GetRoute(c.Request.Context(), *req.Origin, req.Destination)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
