package model

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work owned by one user and optionally shared with others.
type Task struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	OwnerID     int64      `gorm:"not null;index" json:"owner_id"`
	Title       string     `gorm:"size:200;not null;index" json:"title"`
	Description string     `gorm:"size:1000" json:"description,omitempty"`
	Status      TaskStatus `gorm:"size:32;not null;index" json:"status"`
	DueDate     *time.Time `gorm:"index" json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Shares []TaskShare `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}

// TaskShare grants a user access to someone else's task.
type TaskShare struct {
	TaskID    int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}
