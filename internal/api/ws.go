package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/realtime"
)

// Notifier pushes an event to every live socket a user has open. It must
// not block.
type Notifier interface {
	Notify(userID string, ev realtime.Event)
}

// Realtime is the websocket hub as the router sees it.
type Realtime interface {
	Notifier
	ServeWS(w http.ResponseWriter, r *http.Request, userID string) error
}

type WSHandler struct {
	hub    Realtime
	logger *zap.Logger
}

func NewWSHandler(hub Realtime, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// Serve handles GET /api/ws. It sits behind middleware.WebSocketAuth, since
// browsers cannot set headers on a websocket handshake and the token
// arrives as ?token=.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := middleware.GetUserID(c)
	username := middleware.GetUsername(c)
	if err := h.hub.ServeWS(c.Writer, c.Request, userID); err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed",
			zap.String("user_id", userID),
			zap.String("username", username),
			zap.Error(err),
		)
		return
	}
	h.logger.Info("websocket connected", zap.String("user_id", userID), zap.String("username", username))
}
