// internal/handler/ws_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"presence-service/internal/middleware"
	"presence-service/internal/ws"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	connectTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler serves the user-status WebSocket endpoint and runs the
// transport pumps that feed the presence lifecycle.
type WSHandler struct {
	lifecycle *ws.Lifecycle
	logger    *zap.Logger
}

func NewWSHandler(lifecycle *ws.Lifecycle, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// HandleUserStatus godoc
// @Summary      User-status WebSocket
// @Description  Registers the caller as online and streams presence events for all users
// @Tags         websocket
// @Param        userId query string true "User id or email"
// @Success      101 {string} string "Switching Protocols"
// @Router       /ws/user-status [get]
func (h *WSHandler) HandleUserStatus(c *gin.Context) {
	rawUser := c.Query("userId")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade user-status connection", zap.Error(err))
		return
	}

	conn := ws.NewConn(sock)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	userID, err := h.lifecycle.OnConnect(ctx, conn, rawUser)
	cancel()
	if err != nil {
		h.logger.Warn("Rejecting user-status connection",
			zap.String("connId", conn.ID()),
			zap.Error(err))
		conn.Close(websocket.ClosePolicyViolation, "identity resolution failed")
		return
	}

	middleware.RecordWebSocketConnection()
	h.logger.Info("User-status WebSocket connected",
		zap.Int64("userId", userID),
		zap.String("connId", conn.ID()))

	go h.writePump(conn)
	h.readPump(conn, userID)
}

// readPump consumes inbound frames until the connection dies. Each frame is
// an activity pulse; the payload is never parsed.
func (h *WSHandler) readPump(conn *ws.Conn, userID int64) {
	defer func() {
		conn.Close(websocket.CloseNormalClosure, "")
		middleware.RecordWebSocketDisconnection()

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		h.lifecycle.OnDisconnect(ctx, userID, conn)
		cancel()

		h.logger.Info("User-status WebSocket disconnected",
			zap.Int64("userId", userID),
			zap.String("connId", conn.ID()))
	}()

	conn.SetupRead(maxMessageSize, pongWait)

	for {
		if _, err := conn.NextMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("User-status WebSocket read error",
					zap.Int64("userId", userID),
					zap.Error(err))
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		h.lifecycle.OnMessage(ctx, userID)
		cancel()
	}
}

// writePump keeps the connection alive with pings; presence payloads are
// written by the dispatcher through the connection's own write lock.
func (h *WSHandler) writePump(conn *ws.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.Ping(); err != nil {
			return
		}
	}
}
