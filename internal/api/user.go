package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/auth"
	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

type UserHandler struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewUserHandler(repo repository.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{repo: repo, logger: logger}
}

// Username and registration number are fixed at registration.
type updateProfileRequest struct {
	Email             *string   `json:"email" binding:"omitempty,email"`
	Password          *string   `json:"password" binding:"omitempty,min=6,max=72"`
	FullName          *string   `json:"fullName" binding:"omitempty,min=1,max=100"`
	Program           *string   `json:"program" binding:"omitempty,min=1,max=100"`
	Year              *int      `json:"year" binding:"omitempty,min=1"`
	PreferredLocation *string   `json:"preferredLocation" binding:"omitempty,max=100"`
	Subjects          *[]string `json:"subjects" binding:"omitempty,max=20"`
	StudyTopics       *string   `json:"studyTopics" binding:"omitempty,max=500"`
	ProfileImage      *string   `json:"profileImage" binding:"omitempty,max=500"`
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	h.respondUser(c, middleware.GetUserID(c))
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	h.respondUser(c, c.Param("id"))
}

func (h *UserHandler) respondUser(c *gin.Context, id string) {
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.logger, "failed to get user", err)
		return
	}
	if user == nil {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := models.UserPatch{
		Email:             req.Email,
		FullName:          req.FullName,
		Program:           req.Program,
		Year:              req.Year,
		PreferredLocation: req.PreferredLocation,
		Subjects:          req.Subjects,
		StudyTopics:       req.StudyTopics,
		ProfileImage:      req.ProfileImage,
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			internalError(c, h.logger, "failed to update profile", err)
			return
		}
		patch.Password = &hash
	}

	user, err := h.repo.Update(c.Request.Context(), middleware.GetUserID(c), patch)
	if err != nil {
		if conflictStatus(c, err) {
			return
		}
		internalError(c, h.logger, "failed to update profile", err)
		return
	}
	if user == nil {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, user.Public())
}
