package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"taskboard-backend/internal/mw"
	"taskboard-backend/internal/ws"
)

// ServeWS handles GET /ws. The upgraded connection becomes the user's live
// channel until it drops or a newer connection supersedes it.
func (h *Handler) ServeWS(c *gin.Context) {
	userID := mw.UserID(c)

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already answered the client.
		log.Printf("Websocket upgrade for user %d failed: %v", userID, err)
		return
	}

	conn := ws.NewConn(raw, h.wsOptions)
	if h.registry.Connect(userID, conn) {
		log.Printf("User %d reconnected; session %s supersedes the previous one", userID, conn.ID())
	}

	defer func() {
		if h.registry.Disconnect(userID, conn) {
			log.Printf("User %d disconnected (session %s)", userID, conn.ID())
		}
		_ = conn.Close(websocket.CloseNormalClosure, "")
	}()

	if err := conn.Serve(h.shutdown); err != nil {
		log.Printf("Websocket session %s of user %d ended: %v", conn.ID(), userID, err)
	}
}
