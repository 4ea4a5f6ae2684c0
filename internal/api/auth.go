package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/auth"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

// AuthHandler serves the only public endpoints: they issue the token every
// other route requires.
type AuthHandler struct {
	users     repository.UserRepository
	jwtSecret string
	jwtTTL    time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(users repository.UserRepository, jwtSecret string, jwtTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		logger:    logger,
	}
}

type registerRequest struct {
	Username           string   `json:"username" binding:"required,min=3,max=32"`
	Email              string   `json:"email" binding:"required,email"`
	Password           string   `json:"password" binding:"required,min=6,max=72"`
	FullName           string   `json:"fullName" binding:"required,max=100"`
	RegistrationNumber string   `json:"registrationNumber" binding:"required,max=32"`
	Program            string   `json:"program" binding:"required,max=100"`
	Year               int      `json:"year" binding:"required,min=1"`
	PreferredLocation  string   `json:"preferredLocation" binding:"max=100"`
	Subjects           []string `json:"subjects" binding:"max=20"`
	StudyTopics        string   `json:"studyTopics" binding:"max=500"`
	ProfileImage       string   `json:"profileImage" binding:"max=500"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User    *models.PublicUser `json:"user"`
	Token   string             `json:"token"`
	Message string             `json:"message"`
}

// Register handles POST /api/auth/register
//
// The lookups below give a precise error in the common case. They are not
// what guarantees uniqueness: two concurrent registrations can both pass
// them, and Create rejects the loser atomically.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	existing, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		internalError(c, h.logger, "registration failed", err)
		return
	}
	if existing != nil {
		conflictStatus(c, repository.ErrEmailTaken)
		return
	}
	existing, err = h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		internalError(c, h.logger, "registration failed", err)
		return
	}
	if existing != nil {
		conflictStatus(c, repository.ErrUsernameTaken)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(c, h.logger, "registration failed", err)
		return
	}

	subjects := req.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	user, err := h.users.Create(ctx, models.User{
		Username:           req.Username,
		Email:              req.Email,
		Password:           hash,
		FullName:           req.FullName,
		RegistrationNumber: req.RegistrationNumber,
		Program:            req.Program,
		Year:               req.Year,
		PreferredLocation:  req.PreferredLocation,
		Subjects:           subjects,
		StudyTopics:        req.StudyTopics,
		ProfileImage:       req.ProfileImage,
	})
	if err != nil {
		if conflictStatus(c, err) {
			return
		}
		internalError(c, h.logger, "registration failed", err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.jwtSecret, h.jwtTTL)
	if err != nil {
		internalError(c, h.logger, "registration failed", err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	c.JSON(http.StatusCreated, authResponse{
		User:    user.Public(),
		Token:   token,
		Message: "User registered successfully",
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		internalError(c, h.logger, "login failed", err)
		return
	}

	// Same message for unknown user and wrong password.
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.jwtSecret, h.jwtTTL)
	if err != nil {
		internalError(c, h.logger, "login failed", err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		User:    user.Public(),
		Token:   token,
		Message: "Login successful",
	})
}
