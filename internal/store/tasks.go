package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard-backend/internal/model"
)

// visibleTo scopes a task query to tasks the user owns or has been shared.
func (s *GormStore) visibleTo(ctx context.Context, userID int64) *gorm.DB {
	shared := s.db.Model(&model.TaskShare{}).Select("task_id").Where("user_id = ?", userID)
	return s.db.WithContext(ctx).Where("(tasks.owner_id = ? OR tasks.id IN (?))", userID, shared)
}

// CreateTask inserts a task. An empty status defaults to Pending.
func (s *GormStore) CreateTask(ctx context.Context, task *model.Task) error {
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return wrap("create task", err)
	}
	return nil
}

// GetTask returns a task the user owns or has been shared.
func (s *GormStore) GetTask(ctx context.Context, id, userID int64) (*model.Task, error) {
	var task model.Task
	if err := s.visibleTo(ctx, userID).Where("tasks.id = ?", id).First(&task).Error; err != nil {
		return nil, wrap(fmt.Sprintf("get task %d", id), err)
	}
	return &task, nil
}

// ListTasks returns the tasks visible to the user, newest first.
func (s *GormStore) ListTasks(ctx context.Context, userID int64, filter TaskFilter) ([]model.Task, error) {
	q := s.visibleTo(ctx, userID)
	if filter.Query != "" {
		q = q.Where("LOWER(tasks.title) LIKE ?", "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.Status != "" {
		q = q.Where("tasks.status = ?", filter.Status)
	}

	tasks := []model.Task{}
	if err := q.Order("tasks.created_at DESC").Order("tasks.id DESC").Find(&tasks).Error; err != nil {
		return nil, wrap("list tasks", err)
	}
	return tasks, nil
}

// UpdateTaskStatus changes the status of a task visible to userID. changed is
// false when the task already had that status.
func (s *GormStore) UpdateTaskStatus(ctx context.Context, id, userID int64, status model.TaskStatus) (*model.Task, bool, error) {
	task, err := s.GetTask(ctx, id, userID)
	if err != nil {
		return nil, false, err
	}
	if task.Status == status {
		return task, false, nil
	}

	if err := s.db.WithContext(ctx).Model(task).Update("status", status).Error; err != nil {
		return nil, false, wrap(fmt.Sprintf("update status of task %d", id), err)
	}
	task.Status = status
	return task, true, nil
}

// ShareTask grants targetID access to a task owned by ownerID. Sharing twice
// is not an error.
func (s *GormStore) ShareTask(ctx context.Context, id, ownerID, targetID int64) (*model.Task, error) {
	task, err := s.GetTask(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, fmt.Errorf("share task %d: only the owner may share: %w", id, ErrForbidden)
	}

	share := model.TaskShare{TaskID: id, UserID: targetID, CreatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&share).Error
	if err != nil {
		return nil, wrap(fmt.Sprintf("share task %d with user %d", id, targetID), err)
	}
	return task, nil
}

// TaskAudience returns the owner and every sharee of a task.
func (s *GormStore) TaskAudience(ctx context.Context, id int64) ([]int64, error) {
	var task model.Task
	if err := s.db.WithContext(ctx).Select("id", "owner_id").First(&task, id).Error; err != nil {
		return nil, wrap(fmt.Sprintf("load task %d", id), err)
	}

	var sharees []int64
	if err := s.db.WithContext(ctx).Model(&model.TaskShare{}).
		Where("task_id = ?", id).
		Order("user_id").
		Pluck("user_id", &sharees).Error; err != nil {
		return nil, wrap(fmt.Sprintf("load sharees of task %d", id), err)
	}
	return append([]int64{task.OwnerID}, sharees...), nil
}

// Overview aggregates the status counts of the tasks userID owns. Tasks due
// before today that are not completed count as overdue.
func (s *GormStore) Overview(ctx context.Context, userID int64, today time.Time) (*Overview, error) {
	type countRow struct {
		Status model.TaskStatus
		Count  int64
	}
	var rows []countRow
	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, wrap("aggregate task statuses", err)
	}

	o := &Overview{}
	for _, r := range rows {
		o.Total += r.Count
		switch r.Status {
		case model.TaskStatusCompleted:
			o.Completed = r.Count
		case model.TaskStatusPending:
			o.Pending = r.Count
		case model.TaskStatusInProgress:
			o.InProgress = r.Count
		}
	}

	y, m, d := today.UTC().Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("owner_id = ? AND due_date < ? AND status <> ?", userID, startOfDay, model.TaskStatusCompleted).
		Count(&o.Overdue).Error; err != nil {
		return nil, wrap("count overdue tasks", err)
	}

	if o.Total > 0 {
		o.CompletionRate = math.Round(float64(o.Completed)/float64(o.Total)*1000) / 10
	}
	return o, nil
}
