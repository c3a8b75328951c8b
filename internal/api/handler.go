package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"taskboard-backend/internal/notification"
	"taskboard-backend/internal/store"
	"taskboard-backend/internal/task"
	"taskboard-backend/internal/ws"
)

// Deps are the collaborators a Handler needs.
type Deps struct {
	Store    store.Store
	Registry *notification.Registry
	Tasks    *task.Service
	Push     *webpush.Options

	WebSocket      ws.Options
	AllowedOrigins []string

	// Shutdown is cancelled when the server stops; live websocket sessions
	// end with it.
	Shutdown context.Context
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	registry *notification.Registry
	tasks    *task.Service
	webpush  *webpush.Options

	upgrader  websocket.Upgrader
	wsOptions ws.Options
	shutdown  context.Context
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	shutdown := d.Shutdown
	if shutdown == nil {
		shutdown = context.Background()
	}
	return &Handler{
		store:     d.Store,
		registry:  d.Registry,
		tasks:     d.Tasks,
		webpush:   d.Push,
		upgrader:  websocket.Upgrader{CheckOrigin: allowOrigins(d.AllowedOrigins)},
		wsOptions: d.WebSocket,
		shutdown:  shutdown,
		now:       time.Now,
	}
}

// allowOrigins accepts any Origin when the list is empty.
func allowOrigins(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// Health handles GET /api.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":         "Task Management System Backend Running",
		"connected_users": h.registry.Len(),
	})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP responses.
func respondError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrShareWithSelf),
		errors.Is(err, notification.ErrInvalidMessage):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
