package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/anonto42/nano-blog/backend/internal/handlers"
	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/pkg/cache"
	"github.com/anonto42/nano-blog/backend/pkg/storage"
)

// Dependencies are the process-wide clients the routes are built from.
// Mongo, Redis and Storage may be nil.
type Dependencies struct {
	Postgres *gorm.DB
	Mongo    *mongo.Database
	Redis    *redis.Client
	Verifier middleware.TokenVerifier
	Storage  storage.ObjectStorage

	WebhookSecret  string
	MaxUploadBytes int64
	PostCacheTTL   time.Duration
}

// SetupRoutes migrates the schema and configures all application routes.
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	// Users first: posts and favorites reference them.
	if err := deps.Postgres.AutoMigrate(&models.User{}, &models.Post{}, &models.Favorite{}); err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}
	slog.Info("PostgreSQL auto-migrations completed for all models.")

	e.GET("/health", handlers.HealthCheck)

	// --- Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	postRepo := repositories.NewPostgresPostRepository(deps.Postgres)
	favoriteRepo := repositories.NewPostgresFavoriteRepository(deps.Postgres)

	var eventRepo repositories.IngestionEventRepository
	if deps.Mongo != nil {
		mongoEvents := repositories.NewMongoIngestionEventRepository(deps.Mongo)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongoEvents.EnsureIndexes(ctx); err != nil {
			slog.Warn("Failed to create webhook event indexes", "err", err)
		}
		cancel()
		eventRepo = mongoEvents
	}

	var postCache services.PostListCache
	if deps.Redis != nil {
		postCache = cache.NewPostListCache(deps.Redis, deps.PostCacheTTL)
	}

	// --- Services ---
	userService := services.NewUserService(userRepo)
	postService := services.NewPostService(postRepo, userService, postCache)
	favoriteService := services.NewFavoriteService(favoriteRepo, postRepo, userService, postCache)
	uploadService := services.NewUploadService(deps.Storage, deps.MaxUploadBytes)
	ingestionService := services.NewIngestionService(userRepo, eventRepo)

	api := e.Group("/api/v1")
	auth := middleware.RequireAuth(deps.Verifier)

	handlers.NewPostHandler(postService).RegisterPostRoutes(api, auth)
	slog.Info("Post routes configured.")

	webhookGuards := []echo.MiddlewareFunc{writeLimiter()}
	if deps.WebhookSecret != "" {
		webhookGuards = append(webhookGuards, middleware.VerifyWebhook(middleware.NewWebhookVerifier(deps.WebhookSecret)))
		slog.Info("Webhook signature verification enabled.")
	} else {
		slog.Warn("WEBHOOK_SECRET not set, webhook signatures are not verified")
	}
	handlers.NewWebhookHandler(ingestionService).RegisterWebhookRoutes(api, webhookGuards...)
	slog.Info("Webhook routes configured.")

	protected := api.Group("", auth)

	handlers.NewFavoriteHandler(favoriteService).RegisterFavoriteRoutes(protected)
	slog.Info("Favorite routes configured.")

	// The body limit sits above the upload limit so oversized files reach
	// the upload service and get its 400 instead of a bare 413.
	bodyLimit := fmt.Sprintf("%dB", 2*deps.MaxUploadBytes+1<<20)
	handlers.NewUploadHandler(uploadService).RegisterUploadRoutes(protected, writeLimiter(), eMiddleware.BodyLimit(bodyLimit))
	slog.Info("Upload routes configured.")

	handlers.NewUserHandler(userService).RegisterProfileRoutes(protected)
	slog.Info("User profile routes configured.")

	slog.Info("All routes configured.")
	return nil
}

// writeLimiter allows 30 requests per minute per client IP.
func writeLimiter() echo.MiddlewareFunc {
	return eMiddleware.RateLimiter(eMiddleware.NewRateLimiterMemoryStoreWithConfig(
		eMiddleware.RateLimiterMemoryStoreConfig{Rate: 30.0 / 60, Burst: 10, ExpiresIn: 3 * time.Minute},
	))
}
