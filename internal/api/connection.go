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

type ConnectionHandler struct {
	repo     repository.ConnectionRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewConnectionHandler(repo repository.ConnectionRepository, users repository.UserRepository, notifier Notifier, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{repo: repo, users: users, notifier: notifier, logger: logger}
}

type createConnectionRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
}

type updateConnectionStatusRequest struct {
	Status models.ConnectionStatus `json:"status" binding:"required,oneof=pending accepted rejected"`
}

// List handles GET /api/connections/:userId
func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.repo.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		internalError(c, h.logger, "failed to list connections", err)
		return
	}
	c.JSON(http.StatusOK, conns)
}

// Create handles POST /api/connections. The caller is the requester.
func (h *ConnectionHandler) Create(c *gin.Context) {
	var req createConnectionRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	requesterID := middleware.GetUserID(c)

	if req.ReceiverID == requesterID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot connect with yourself"})
		return
	}
	receiver, err := h.users.GetByID(ctx, req.ReceiverID)
	if err != nil {
		internalError(c, h.logger, "failed to create connection", err)
		return
	}
	if receiver == nil {
		notFound(c, "user")
		return
	}

	conn, err := h.repo.Create(ctx, models.Connection{
		RequesterID: requesterID,
		ReceiverID:  receiver.ID,
		Status:      models.ConnectionPending,
	})
	if err != nil {
		internalError(c, h.logger, "failed to create connection", err)
		return
	}

	h.notifier.Notify(conn.ReceiverID, realtime.Event{Type: realtime.EventConnection, Data: conn})
	c.JSON(http.StatusCreated, conn)
}

// UpdateStatus handles PUT /api/connections/:id/status
func (h *ConnectionHandler) UpdateStatus(c *gin.Context) {
	var req updateConnectionStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	callerID := middleware.GetUserID(c)

	conn, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		internalError(c, h.logger, "failed to update connection", err)
		return
	}
	if conn == nil {
		notFound(c, "connection")
		return
	}
	if callerID != conn.RequesterID && callerID != conn.ReceiverID {
		forbidden(c, "not a participant in this connection")
		return
	}

	updated, err := h.repo.UpdateStatus(ctx, conn.ID, req.Status)
	if err != nil {
		internalError(c, h.logger, "failed to update connection", err)
		return
	}
	if updated == nil {
		notFound(c, "connection")
		return
	}

	other := updated.RequesterID
	if callerID == updated.RequesterID {
		other = updated.ReceiverID
	}
	h.notifier.Notify(other, realtime.Event{Type: realtime.EventConnection, Data: updated})
	c.JSON(http.StatusOK, updated)
}
