package model

import "time"

// MaxMessageLength bounds the text of a single notification.
const MaxMessageLength = 500

// Notification is the durable record of one event a user should be told about.
// CreatedAt is immutable and Read only ever moves from false to true.
type Notification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"-"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	Read      bool      `gorm:"not null;index:idx_notifications_user_read,priority:2" json:"read"`
}
