package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

type StudyBuddyHandler struct {
	repo   repository.StudyBuddyRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func NewStudyBuddyHandler(repo repository.StudyBuddyRepository, users repository.UserRepository, logger *zap.Logger) *StudyBuddyHandler {
	return &StudyBuddyHandler{repo: repo, users: users, logger: logger}
}

type createStudyBuddyRequest struct {
	Subject     string `json:"subject" binding:"required,max=100"`
	Topic       string `json:"topic" binding:"required,max=200"`
	Location    string `json:"location" binding:"required,max=100"`
	Description string `json:"description" binding:"max=1000"`
}

type updateStudyBuddyRequest struct {
	Subject     *string `json:"subject" binding:"omitempty,min=1,max=100"`
	Topic       *string `json:"topic" binding:"omitempty,min=1,max=200"`
	Location    *string `json:"location" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	IsActive    *bool   `json:"isActive"`
}

// studyBuddyView is a request plus its author, or null if the author no
// longer exists.
type studyBuddyView struct {
	models.StudyBuddyRequest
	User *models.PublicUser `json:"user"`
}

// List handles GET /api/study-buddies?subject=&topic=&location=
func (h *StudyBuddyHandler) List(c *gin.Context) {
	requests, err := h.repo.List(c.Request.Context(), models.StudyBuddyFilter{
		Subject:  c.Query("subject"),
		Topic:    c.Query("topic"),
		Location: c.Query("location"),
	})
	if err != nil {
		internalError(c, h.logger, "failed to list study buddy requests", err)
		return
	}

	views, err := h.withUsers(c.Request.Context(), requests)
	if err != nil {
		internalError(c, h.logger, "failed to list study buddy requests", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Create handles POST /api/study-buddies. The owner is always the caller.
func (h *StudyBuddyHandler) Create(c *gin.Context) {
	var req createStudyBuddyRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.repo.Create(c.Request.Context(), models.StudyBuddyRequest{
		UserID:      middleware.GetUserID(c),
		Subject:     req.Subject,
		Topic:       req.Topic,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		internalError(c, h.logger, "failed to create study buddy request", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListByUser handles GET /api/study-buddies/user/:userId
func (h *StudyBuddyHandler) ListByUser(c *gin.Context) {
	requests, err := h.repo.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		internalError(c, h.logger, "failed to list study buddy requests", err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// Update handles PATCH /api/study-buddies/:id (owner only).
func (h *StudyBuddyHandler) Update(c *gin.Context) {
	var req updateStudyBuddyRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	existing, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		internalError(c, h.logger, "failed to update study buddy request", err)
		return
	}
	if existing == nil {
		notFound(c, "study buddy request")
		return
	}
	if existing.UserID != middleware.GetUserID(c) {
		forbidden(c, "only the author can change this request")
		return
	}

	updated, err := h.repo.Update(ctx, existing.ID, models.StudyBuddyPatch{
		Subject:     req.Subject,
		Topic:       req.Topic,
		Location:    req.Location,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		internalError(c, h.logger, "failed to update study buddy request", err)
		return
	}
	if updated == nil {
		notFound(c, "study buddy request")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// withUsers looks each author up once per response.
func (h *StudyBuddyHandler) withUsers(ctx context.Context, requests []models.StudyBuddyRequest) ([]studyBuddyView, error) {
	authors := make(map[string]*models.PublicUser)
	views := make([]studyBuddyView, 0, len(requests))
	for _, r := range requests {
		author, seen := authors[r.UserID]
		if !seen {
			u, err := h.users.GetByID(ctx, r.UserID)
			if err != nil {
				return nil, err
			}
			author = u.Public()
			authors[r.UserID] = author
		}
		views = append(views, studyBuddyView{StudyBuddyRequest: r, User: author})
	}
	return views, nil
}
