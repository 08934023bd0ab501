package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidhyasrikachapalayam/visionassist/internal/pipeline"
)

// CameraHandler exposes the face pipeline's session controls.
type CameraHandler struct {
	controller *pipeline.Controller
}

// NewCameraHandler creates a new camera handler.
func NewCameraHandler(controller *pipeline.Controller) *CameraHandler {
	return &CameraHandler{controller: controller}
}

// StartCamera handles POST /api/v1/camera/start.
func (h *CameraHandler) StartCamera(c *gin.Context) {
	if err := h.controller.StartCamera(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// StopCamera handles POST /api/v1/camera/stop. Idempotent.
func (h *CameraHandler) StopCamera(c *gin.Context) {
	h.controller.StopCamera(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// StartDetection handles POST /api/v1/detection/start.
func (h *CameraHandler) StartDetection(c *gin.Context) {
	if err := h.controller.StartDetection(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// StopDetection handles POST /api/v1/detection/stop. The camera stays active.
func (h *CameraHandler) StopDetection(c *gin.Context) {
	h.controller.StopDetection()
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// Annotations handles GET /api/v1/detection/annotations: the latest published
// tick result.
func (h *CameraHandler) Annotations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":       h.controller.State(),
		"annotations": h.controller.Annotations(),
	})
}
