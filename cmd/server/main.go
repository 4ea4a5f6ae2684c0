package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/ai"
	"github.com/lalith-99/studymate/internal/api"
	"github.com/lalith-99/studymate/internal/cache"
	"github.com/lalith-99/studymate/internal/config"
	"github.com/lalith-99/studymate/internal/db"
	"github.com/lalith-99/studymate/internal/middleware"
	"github.com/lalith-99/studymate/internal/observ"
	"github.com/lalith-99/studymate/internal/realtime"
	"github.com/lalith-99/studymate/internal/repository"
	"github.com/lalith-99/studymate/internal/repository/memory"
	"github.com/lalith-99/studymate/internal/repository/postgres"
	"github.com/lalith-99/studymate/internal/upload"
)

const (
	authRateLimit  = 20
	authRateWindow = time.Minute
	shutdownGrace  = 10 * time.Second
	aiMaxRetries   = 2
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config and create the logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// ctx is cancelled on SIGINT/SIGTERM. Startup steps take it too, so a
	// Ctrl-C while Postgres or Redis is still unreachable aborts the dial
	// instead of waiting it out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 2. Storage
	//
	// Both backends satisfy repository.Store, so nothing below this
	// point knows which one it got. Close is deferred right after the
	// open succeeds: whatever path run() leaves by, the pool drains.
	// ---------------------------------------------------------------
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// ---------------------------------------------------------------
	// 3. Optional Redis cache for AI answers
	//
	// Redis is an accelerator, not a dependency: if it is down at
	// startup we log and carry on uncached. Once connected it joins the
	// health checks, since a cache that silently died is worth knowing
	// about.
	// ---------------------------------------------------------------
	var aiCache ai.Cache
	healthChecks := map[string]api.HealthChecker{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, AI answers will not be cached", zap.Error(err))
		} else {
			defer rc.Close()
			aiCache = rc
			healthChecks["redis"] = rc
		}
	}

	// ---------------------------------------------------------------
	// 4. AI assistant
	//
	// Without a key the completer stays nil and every answer is the
	// fallback text. The SDK retries 429s and 5xx on its own, backing
	// off and honouring Retry-After; aiMaxRetries caps how long a user
	// waits on that.
	// ---------------------------------------------------------------
	var completer ai.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = ai.NewClient(ai.ClientConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Timeout:    cfg.AITimeout,
			MaxRetries: aiMaxRetries,
		})
	} else {
		logger.Warn("OPENAI_API_KEY not set, AI assistant disabled")
	}
	assistant := ai.NewAssistant(completer, aiCache, cfg.AICacheTTL, logger)

	// ---------------------------------------------------------------
	// 5. Uploads and websocket hub
	// ---------------------------------------------------------------
	uploads, err := upload.NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("init uploads: %w", err)
	}

	hub := realtime.NewHub(logger, cfg.CORSOrigins)
	defer hub.Close()

	// ---------------------------------------------------------------
	// 6. HTTP
	//
	// TrustedProxies is empty unless the deployment sits behind a known
	// load balancer. Leaving gin's default (trust everyone) would let a
	// client choose its own rate-limit key by sending X-Forwarded-For.
	// ---------------------------------------------------------------
	router, err := api.NewRouter(api.Deps{
		Store:          store,
		Uploads:        uploads,
		Assistant:      assistant,
		Realtime:       hub,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTTTL,
		CORSOrigins:    cfg.CORSOrigins,
		AuthRateLimit:  middleware.NewRateLimiter(authRateLimit, authRateWindow),
		Logger:         logger,
		TrustedProxies: cfg.TrustedProxies,
		HealthChecks:   healthChecks,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ---------------------------------------------------------------
	// 7. Serve until a signal arrives, then drain
	//
	// ListenAndServe blocks, so it runs in its own goroutine and reports
	// back on errCh. http.ErrServerClosed is the normal result of
	// Shutdown and is not an error. Shutdown stops accepting new
	// connections and waits up to shutdownGrace for in-flight requests;
	// the deferred Close calls above run after it returns.
	// ---------------------------------------------------------------
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting StudyMate",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	// The signal context is already cancelled, so the grace period needs a
	// fresh root.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore picks the backend from STORAGE_BACKEND. The Postgres path also
// runs migrations, so a fresh database is usable on first boot.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.StorageBackend != config.BackendPostgres {
		logger.Info("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return postgres.NewStore(database), nil
}
