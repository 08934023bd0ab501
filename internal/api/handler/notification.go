package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
	"github.com/vidhyasrikachapalayam/visionassist/internal/service"
)

// NotificationHandler exposes the notification/speech bridge.
type NotificationHandler struct {
	notifier *service.Notifier
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notifier *service.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// NotifyRequest is the POST /notifications body.
type NotifyRequest struct {
	Message  string          `json:"message" binding:"required"`
	Severity domain.Severity `json:"severity"`
}

// Notify handles POST /api/v1/notifications: raise a banner and speak it.
func (h *NotificationHandler) Notify(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Severity == "" {
		req.Severity = domain.SeverityInfo
	}

	entry := h.notifier.Notify(c.Request.Context(), req.Message, req.Severity)
	c.JSON(http.StatusCreated, entry)
}

// List handles GET /api/v1/notifications: current pending entries.
func (h *NotificationHandler) List(c *gin.Context) {
	pending := h.notifier.Pending()
	c.JSON(http.StatusOK, gin.H{
		"notifications": pending,
		"total":         len(pending),
	})
}

// Dismiss handles DELETE /api/v1/notifications/:id.
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	dismissed := h.notifier.Dismiss(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": dismissed})
}
