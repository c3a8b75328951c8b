// Package task holds the task workflows that raise notifications.
package task

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taskboard-backend/internal/model"
	"taskboard-backend/internal/notification"
	"taskboard-backend/internal/store"
)

var (
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrShareWithSelf is returned when a user shares a task with themselves.
	ErrShareWithSelf = errors.New("cannot share a task with yourself")
)

// Notifier delivers one notification synchronously.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) (*model.Notification, error)
}

// JobSubmitter queues notification work for the background executor.
type JobSubmitter interface {
	Submit(ctx context.Context, job notification.Job) error
}

// Service implements the task operations that notify other users.
type Service struct {
	store    store.Store
	notifier Notifier
	jobs     JobSubmitter
}

// NewService creates a new task service.
func NewService(s store.Store, notifier Notifier, jobs JobSubmitter) *Service {
	return &Service{store: s, notifier: notifier, jobs: jobs}
}

// StatusChangedMessage is the text users see when a task moves to status.
func StatusChangedMessage(title string, status model.TaskStatus) string {
	return fmt.Sprintf("Task %q status changed to %s", title, status)
}

// SharedMessage is the text a user sees when actor shares a task with them.
func SharedMessage(actor int64, title string) string {
	return fmt.Sprintf("User %d shared task %q with you", actor, title)
}

// UpdateStatus changes the task's status and, if it actually changed, queues
// a notification for everyone else who can see the task. Failing to queue the
// notification is logged; the status change itself stands.
func (s *Service) UpdateStatus(ctx context.Context, taskID, actor int64, status model.TaskStatus) (*model.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	t, changed, err := s.store.UpdateTaskStatus(ctx, taskID, actor, status)
	if err != nil {
		return nil, err
	}
	if !changed {
		return t, nil
	}

	audience, err := s.store.TaskAudience(ctx, taskID)
	if err != nil {
		log.Printf("Error loading audience of task %d: %v", taskID, err)
		return t, nil
	}
	recipients := make([]int64, 0, len(audience))
	for _, userID := range audience {
		if userID != actor {
			recipients = append(recipients, userID)
		}
	}
	if len(recipients) == 0 {
		return t, nil
	}

	job := notification.Job{UserIDs: recipients, Message: StatusChangedMessage(t.Title, t.Status)}
	if err := s.jobs.Submit(ctx, job); err != nil {
		log.Printf("Error queueing status notification for task %d: %v", taskID, err)
	}
	return t, nil
}

// Share grants target access to the actor's task and notifies target right
// away. A notification failure is returned even though the share persisted.
func (s *Service) Share(ctx context.Context, taskID, actor, target int64) (*model.Task, error) {
	if actor == target {
		return nil, ErrShareWithSelf
	}

	t, err := s.store.ShareTask(ctx, taskID, actor, target)
	if err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(ctx, target, SharedMessage(actor, t.Title)); err != nil {
		return t, fmt.Errorf("notify user %d of share: %w", target, err)
	}
	return t, nil
}
