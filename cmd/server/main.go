package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/handlers"
	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/router"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/anonto42/nano-blog/backend/pkg/logger"
	"github.com/anonto42/nano-blog/backend/pkg/storage"
	"github.com/anonto42/nano-blog/backend/validators"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	var firebaseApp *firebase.App
	if cfg.NeedsFirebase() {
		bucket := ""
		if cfg.StorageDriver == config.StorageDriverFirebase {
			bucket = cfg.StorageBucket
		}
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, bucket)
		if err != nil {
			return err
		}
	}

	var verifier middleware.TokenVerifier
	switch cfg.AuthProvider {
	case config.AuthProviderFirebase:
		verifier = middleware.NewFirebaseVerifier(firebaseApp.AuthClient)
	case config.AuthProviderJWT:
		verifier = middleware.NewJWTVerifier(cfg.JWTSecret)
	}

	var store storage.ObjectStorage
	switch cfg.StorageDriver {
	case config.StorageDriverMinio:
		minioStore, err := storage.NewMinioStorage(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.StorageBucket, cfg.MinioUseSSL, cfg.StoragePublicURL)
		if err != nil {
			slog.Error("Object storage unavailable, uploads will fail", "driver", cfg.StorageDriver, "err", err)
		} else {
			store = minioStore
		}
	case config.StorageDriverFirebase:
		firebaseStore, err := storage.NewFirebaseStorage(firebaseApp.StorageClient, cfg.StorageBucket, cfg.StoragePublicURL)
		if err != nil {
			slog.Error("Object storage unavailable, uploads will fail", "driver", cfg.StorageDriver, "err", err)
		} else {
			store = firebaseStore
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = handlers.JSONSerializer{}
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg)

	err = router.SetupRoutes(e, router.Dependencies{
		Postgres:       db.Postgres,
		Mongo:          db.Mongo,
		Redis:          db.Redis,
		Verifier:       verifier,
		Storage:        store,
		WebhookSecret:  cfg.WebhookSecret,
		MaxUploadBytes: cfg.MaxUploadBytes,
		PostCacheTTL:   cfg.PostCacheTTL,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "port", cfg.Port, "env", cfg.Env)
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server stopped.")
	return nil
}
