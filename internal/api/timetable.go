package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

type TimetableHandler struct {
	repo   repository.TimetableRepository
	logger *zap.Logger
}

func NewTimetableHandler(repo repository.TimetableRepository, logger *zap.Logger) *TimetableHandler {
	return &TimetableHandler{repo: repo, logger: logger}
}

type createTimetableRequest struct {
	Schedule models.Schedule `json:"schedule"`
	IsPublic *bool           `json:"isPublic"`
}

type updateTimetableRequest struct {
	Schedule models.Schedule `json:"schedule" binding:"required"`
	IsPublic *bool           `json:"isPublic"`
}

// Get handles GET /api/timetable/:userId. A private timetable looks the
// same as a missing one to anyone but its owner.
func (h *TimetableHandler) Get(c *gin.Context) {
	userID := c.Param("userId")
	tt, err := h.repo.GetByUser(c.Request.Context(), userID)
	if err != nil {
		internalError(c, h.logger, "failed to get timetable", err)
		return
	}
	if tt == nil || (!tt.IsPublic && userID != middleware.GetUserID(c)) {
		notFound(c, "timetable")
		return
	}
	c.JSON(http.StatusOK, tt)
}

// Create handles POST /api/timetable
func (h *TimetableHandler) Create(c *gin.Context) {
	var req createTimetableRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	isPublic := false
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	schedule := req.Schedule
	if schedule == nil {
		schedule = models.Schedule{}
	}

	tt, err := h.repo.CreateIfAbsent(ctx, models.Timetable{
		UserID:   userID,
		Schedule: schedule,
		IsPublic: isPublic,
	})
	if errors.Is(err, repository.ErrTimetableExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "timetable already exists"})
		return
	}
	if err != nil {
		internalError(c, h.logger, "failed to create timetable", err)
		return
	}
	c.JSON(http.StatusCreated, tt)
}

// Update handles PUT /api/timetable/:userId
func (h *TimetableHandler) Update(c *gin.Context) {
	userID := c.Param("userId")
	if userID != middleware.GetUserID(c) {
		forbidden(c, "you can only edit your own timetable")
		return
	}

	var req updateTimetableRequest
	if !bindJSON(c, &req) {
		return
	}
	tt, err := h.repo.Update(c.Request.Context(), userID, models.TimetablePatch{
		Schedule: req.Schedule,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		internalError(c, h.logger, "failed to update timetable", err)
		return
	}
	if tt == nil {
		notFound(c, "timetable")
		return
	}
	c.JSON(http.StatusOK, tt)
}
