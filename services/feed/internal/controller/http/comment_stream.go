package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"reel-feed/services/feed/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamComments godoc
// @Summary      Live comment snapshots
// @Description  WebSocket. Sends the current list, then every change. An empty reel_id means the stream was closed.
// @Tags         comments
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        token query string false "Bearer token for clients that cannot set headers"
// @Router       /sessions/{session_id}/comments/stream [get]
func (h *FeedHandler) StreamComments(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID := c.GetString("user_id")

	send := make(chan []byte, sendBuffer)
	done := make(chan struct{})
	var closeOnce sync.Once
	shutdown := func() { closeOnce.Do(func() { close(done) }) }

	stop, err := h.feedUseCase.WatchComments(c.Request.Context(), sessionID, userID, func(snapshot usecase.CommentSnapshot) {
		select {
		case <-done:
			return
		default:
		}
		payload, err := json.Marshal(usecase.ToCommentsView(snapshot))
		if err != nil {
			h.logger.Error("Failed to encode comment snapshot: %v", err)
			return
		}
		select {
		case send <- payload:
		default:
			// Slow client; drop the connection rather than block delivery.
			shutdown()
		}
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	defer stop()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Info("Comment stream connected for session %s", sessionID)

	go h.writePump(conn, send, done)
	h.readPump(conn)

	shutdown()
	h.logger.Info("Comment stream disconnected for session %s", sessionID)
}

// readPump only services control frames; clients send nothing else.
func (h *FeedHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read error: %v", err)
			}
			return
		}
	}
}

func (h *FeedHandler) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
