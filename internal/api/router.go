package api

import (
	"fmt"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/observ"
	"github.com/lalith-99/studymate/internal/repository"
	"github.com/lalith-99/studymate/internal/upload"
)

// Deps is everything the HTTP layer needs. Store and Uploads are required;
// AuthRateLimit may be nil to disable limiting.
type Deps struct {
	Store         repository.Store
	Uploads       *upload.Store
	Assistant     StudyAssistant
	Realtime      Realtime
	JWTSecret     string
	JWTTTL        time.Duration
	CORSOrigins   []string
	AuthRateLimit *middleware.RateLimiter
	Logger        *zap.Logger

	// TrustedProxies are the only peers whose X-Forwarded-For is used for
	// the client IP. Nil trusts nobody.
	TrustedProxies []string

	// HealthChecks are run by /v1/health next to the store, keyed by
	// the name reported when one fails (e.g. "redis").
	HealthChecks map[string]HealthChecker
}

func NewRouter(d Deps) (*gin.Engine, error) {
	useJSONFieldNames()

	r := gin.New()
	// gin trusts every proxy by default, which would let any client pick
	// its own rate-limit key through X-Forwarded-For.
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), observ.GinLogger(d.Logger))
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	checks := map[string]HealthChecker{"storage": d.Store}
	for name, hc := range d.HealthChecks {
		checks[name] = hc
	}
	r.GET("/v1/health", NewHealthHandler(checks, d.Logger).Check)

	users := d.Store.Users()
	authH := NewAuthHandler(users, d.JWTSecret, d.JWTTTL, d.Logger)
	userH := NewUserHandler(users, d.Logger)
	buddyH := NewStudyBuddyHandler(d.Store.StudyBuddies(), users, d.Logger)
	noteH := NewNoteHandler(d.Store.Notes(), users, d.Uploads, d.Logger)
	timetableH := NewTimetableHandler(d.Store.Timetables(), d.Logger)
	connH := NewConnectionHandler(d.Store.Connections(), users, d.Realtime, d.Logger)
	msgH := NewMessageHandler(d.Store.Messages(), users, d.Realtime, d.Logger)
	aiH := NewAIHandler(d.Assistant, d.Logger)
	wsH := NewWSHandler(d.Realtime, d.Logger)

	authGroup := r.Group("/api/auth")
	if d.AuthRateLimit != nil {
		authGroup.Use(middleware.RateLimit(d.AuthRateLimit))
	}
	authGroup.POST("/register", authH.Register)
	authGroup.POST("/login", authH.Login)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(d.JWTSecret))

	api.GET("/users/me", userH.Me)
	api.PATCH("/users/me", userH.UpdateMe)
	api.GET("/users/:id", userH.Get)

	api.GET("/study-buddies", buddyH.List)
	api.POST("/study-buddies", buddyH.Create)
	api.GET("/study-buddies/user/:userId", buddyH.ListByUser)
	api.PATCH("/study-buddies/:id", buddyH.Update)

	api.GET("/notes", noteH.List)
	api.POST("/notes", noteH.Create)
	api.GET("/notes/user/:userId", noteH.ListByUser)
	api.GET("/notes/:id", noteH.Get)
	api.GET("/notes/:id/download", noteH.Download)
	api.POST("/notes/:id/like", noteH.Like)

	api.GET("/timetable/:userId", timetableH.Get)
	api.POST("/timetable", timetableH.Create)
	api.PUT("/timetable/:userId", timetableH.Update)

	api.GET("/connections/:userId", connH.List)
	api.POST("/connections", connH.Create)
	api.PUT("/connections/:id/status", connH.UpdateStatus)

	api.GET("/messages/:userId1/:userId2", msgH.List)
	api.POST("/messages", msgH.Create)

	api.POST("/ai/recommendations", aiH.Recommendations)
	api.POST("/ai/question", aiH.Question)
	api.POST("/ai/study-plan", aiH.StudyPlan)

	r.GET("/api/ws", middleware.WebSocketAuth(d.JWTSecret), wsH.Serve)

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		// AllowCredentials with a wildcard origin is rejected by browsers.
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
