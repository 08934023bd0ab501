package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/pipeline"
	"github.com/vidhyasrikachapalayam/visionassist/internal/repository"
)

// FaceHandler handles face registration and listing endpoints.
type FaceHandler struct {
	store      repository.FaceStore
	controller *pipeline.Controller
}

// NewFaceHandler creates a new face handler.
func NewFaceHandler(store repository.FaceStore, controller *pipeline.Controller) *FaceHandler {
	return &FaceHandler{store: store, controller: controller}
}

// RegisterFaceRequest is the POST /faces/register body. A client that already
// extracted a descriptor (the browser model path) sends it inline; omitting
// it registers from the live camera instead.
type RegisterFaceRequest struct {
	Name       string            `json:"name"`
	Descriptor domain.Descriptor `json:"descriptor,omitempty"`
	UserID     string            `json:"userId,omitempty"`
}

// RegisterFace handles POST /api/v1/faces/register.
func (h *FaceHandler) RegisterFace(c *gin.Context) {
	var req RegisterFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()

	var record *domain.FaceRecord
	var err error
	if len(req.Descriptor) > 0 {
		record, err = h.store.Register(ctx, req.Name, req.Descriptor, req.UserID)
		if err == nil {
			// keep the active session's matcher cache fresh
			if rerr := h.controller.RefreshCache(ctx); rerr != nil {
				err = rerr
			}
		}
	} else {
		record, err = h.controller.Register(ctx, req.Name)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        record.ID,
		"name":      record.Name,
		"timestamp": record.CreatedAt,
	})
}

// ListFaces handles GET /api/v1/faces. Descriptor payloads are excluded.
func (h *FaceHandler) ListFaces(c *gin.Context) {
	metas, err := h.store.List(c.Request.Context(), c.Query("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, metas)
}

// ListDescriptors handles GET /api/v1/faces/descriptors.
func (h *FaceHandler) ListDescriptors(c *gin.Context) {
	records, err := h.store.ListWithDescriptors(c.Request.Context(), c.Query("userId"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		out = append(out, gin.H{
			"id":         rec.ID,
			"name":       rec.Name,
			"descriptor": rec.Descriptor,
		})
	}
	c.JSON(http.StatusOK, out)
}

// DeleteFace handles DELETE /api/v1/faces/:id. Deletion is idempotent and
// rebuilds the matcher cache before answering.
func (h *FaceHandler) DeleteFace(c *gin.Context) {
	if err := h.controller.Remove(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
