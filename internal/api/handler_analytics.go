package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard-backend/internal/mw"
)

// GetOverview handles GET /api/analytics/overview.
func (h *Handler) GetOverview(c *gin.Context) {
	o, err := h.store.Overview(c.Request.Context(), mw.UserID(c), h.now())
	if err != nil {
		respondError(c, err, taskNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, o)
}
