package notification

import (
	"context"
	"time"

	"taskboard-backend/internal/model"
)

// Channel is a live, message-oriented connection to one user's client.
// Implementations must be comparable (use pointer receivers): the registry
// identifies a registration by the channel instance itself.
type Channel interface {
	// Send delivers one payload. It must give up once ctx is done.
	Send(ctx context.Context, payload []byte) error
}

// Push is the wire shape of a notification delivered over a Channel.
type Push struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// NewPush builds the minimal push view of a stored notification.
func NewPush(n *model.Notification) Push {
	return Push{
		ID:        n.ID,
		Message:   n.Message,
		CreatedAt: n.CreatedAt.UTC(),
		Read:      n.Read,
	}
}
