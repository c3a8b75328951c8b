package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard-backend/internal/model"
	"taskboard-backend/internal/mw"
	"taskboard-backend/internal/store"
)

const (
	dateLayout      = "2006-01-02"
	taskNotFoundMsg = "task not found"
)

type createTaskRequest struct {
	Title       string           `json:"title" binding:"required,max=200"`
	Description string           `json:"description" binding:"max=1000"`
	Status      model.TaskStatus `json:"status"`
	DueDate     string           `json:"due_date"`
}

// CreateTask handles POST /api/tasks.
func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	t := model.Task{
		OwnerID:     mw.UserID(c),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.DueDate != "" {
		due, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date; use YYYY-MM-DD"})
			return
		}
		t.DueDate = &due
	}

	if err := h.store.CreateTask(c.Request.Context(), &t); err != nil {
		respondError(c, err, taskNotFoundMsg)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTasks handles GET /api/tasks?q=&status=.
func (h *Handler) ListTasks(c *gin.Context) {
	filter := store.TaskFilter{
		Query:  c.Query("q"),
		Status: model.TaskStatus(c.Query("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	tasks, err := h.store.ListTasks(c.Request.Context(), mw.UserID(c), filter)
	if err != nil {
		respondError(c, err, taskNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	t, err := h.store.GetTask(c.Request.Context(), id, mw.UserID(c))
	if err != nil {
		respondError(c, err, taskNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, t)
}

type updateStatusRequest struct {
	Status model.TaskStatus `json:"status" binding:"required"`
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status.
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.tasks.UpdateStatus(c.Request.Context(), id, mw.UserID(c), req.Status)
	if err != nil {
		respondError(c, err, taskNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, t)
}

type shareTaskRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

// ShareTask handles POST /api/tasks/:id/share.
func (h *Handler) ShareTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req shareTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.tasks.Share(c.Request.Context(), id, mw.UserID(c), req.UserID)
	if err != nil {
		respondError(c, err, taskNotFoundMsg)
		return
	}
	c.JSON(http.StatusOK, t)
}
