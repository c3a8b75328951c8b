package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard-backend/internal/mw"
)

// ListNotifications handles GET /api/notifications.
func (h *Handler) ListNotifications(c *gin.Context) {
	notifications, err := h.store.ListUnread(c.Request.Context(), mw.UserID(c))
	if err != nil {
		respondError(c, err, "notification not found")
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead handles POST /api/notifications/:id/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	n, err := h.store.MarkRead(c.Request.Context(), id, mw.UserID(c))
	if err != nil {
		respondError(c, err, "notification not found")
		return
	}
	c.JSON(http.StatusOK, n)
}
