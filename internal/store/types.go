package store

import (
	"errors"

	"taskboard-backend/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist or is not visible
	// to the requesting user. Callers cannot tell the two apart.
	ErrNotFound = errors.New("record not found")

	// ErrPersistence wraps any failure of the underlying database.
	ErrPersistence = errors.New("persistence failure")

	// ErrForbidden is returned when a user may see a record but not change it.
	ErrForbidden = errors.New("forbidden")
)

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	Query  string           // case-insensitive title substring
	Status model.TaskStatus // empty matches any status
}

// Overview summarises the tasks a user owns.
type Overview struct {
	Total          int64   `json:"total"`
	Completed      int64   `json:"completed"`
	Pending        int64   `json:"pending"`
	InProgress     int64   `json:"in_progress"`
	Overdue        int64   `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}
