package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/realtime"
	"github.com/lalith-99/studymate/internal/repository"
)

type MessageHandler struct {
	repo     repository.MessageRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewMessageHandler(repo repository.MessageRepository, users repository.UserRepository, notifier Notifier, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{repo: repo, users: users, notifier: notifier, logger: logger}
}

type createMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required,max=5000"`
}

// Create handles POST /api/messages. The stored message is pushed to every
// open socket of the receiver.
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	receiver, err := h.users.GetByID(ctx, req.ReceiverID)
	if err != nil {
		internalError(c, h.logger, "failed to create message", err)
		return
	}
	if receiver == nil {
		notFound(c, "user")
		return
	}

	msg, err := h.repo.Create(ctx, models.Message{
		SenderID:   middleware.GetUserID(c),
		ReceiverID: receiver.ID,
		Content:    req.Content,
	})
	if err != nil {
		internalError(c, h.logger, "failed to create message", err)
		return
	}

	h.notifier.Notify(msg.ReceiverID, realtime.Event{Type: realtime.EventMessage, Data: msg})
	c.JSON(http.StatusCreated, msg)
}

// List handles GET /api/messages/:userId1/:userId2
func (h *MessageHandler) List(c *gin.Context) {
	a, b := c.Param("userId1"), c.Param("userId2")
	callerID := middleware.GetUserID(c)
	if callerID != a && callerID != b {
		forbidden(c, "you can only read your own conversations")
		return
	}

	msgs, err := h.repo.ListBetween(c.Request.Context(), a, b)
	if err != nil {
		internalError(c, h.logger, "failed to list messages", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
