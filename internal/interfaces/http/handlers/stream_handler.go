package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"ptradoor.backend/internal/interfaces/http/response"
	"ptradoor.backend/internal/usecases"
	"ptradoor.backend/pkg/logger"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// StreamHandler pushes live snapshots over a websocket
type StreamHandler struct {
	subscriptions *usecases.SubscriptionUsecase
	upgrader      websocket.Upgrader
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(subscriptions *usecases.SubscriptionUsecase) *StreamHandler {
	return &StreamHandler{
		subscriptions: subscriptions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// read-only public data
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Stream upgrades to a websocket and writes one JSON snapshot per change of
// topic. Without change notifications only the current snapshot is sent.
// GET /api/v1/ws?topic=&limit=
func (h *StreamHandler) Stream(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// topic errors are reported before the upgrade so the client sees a status
	snapshots, err := h.subscriptions.Watch(ctx, c.Query("topic"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx, "Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				logger.Debug(ctx, "Websocket write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
