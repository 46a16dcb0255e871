package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/yamacamp/backend/internal/config"
	"github.com/yamacamp/backend/internal/handlers"
	"github.com/yamacamp/backend/internal/logger"
	"github.com/yamacamp/backend/internal/middleware"
	"github.com/yamacamp/backend/internal/render"
	"github.com/yamacamp/backend/internal/repositories"
	"github.com/yamacamp/backend/internal/services"
	"github.com/yamacamp/backend/internal/session"
	"github.com/yamacamp/backend/internal/storage"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting YamaCamp")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize media storage
	media, err := newStorage(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	// Initialize view renderer
	renderer, err := render.New(logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to parse views", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	sessionRepo := repositories.NewSessionRepository(db, logger.Logger)
	campgroundRepo := repositories.NewCampgroundRepository(db, logger.Logger)
	reviewRepo := repositories.NewReviewRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, logger.Logger)
	campgroundService := services.NewCampgroundService(campgroundRepo, reviewRepo, media, logger.Logger)
	reviewService := services.NewReviewService(reviewRepo, campgroundRepo, logger.Logger)

	// Initialize session manager
	sessionManager := session.NewManager(sessionRepo, userRepo, logger.Logger, cfg.Session.CookieName, cfg.Session.Expiry)

	// Purge expired session rows in the background until shutdown
	purgeCtx, cancelPurge := context.WithCancel(context.Background())
	go session.PurgeExpired(purgeCtx, sessionRepo, time.Hour, logger.Logger)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(authService, renderer, logger.Logger)
	campgroundHandler := handlers.NewCampgroundHandler(campgroundService, renderer, logger.Logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, renderer, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(25 * 1024 * 1024)) // multipart uploads included
	r.Use(middleware.MethodOverrideMiddleware)
	r.Use(sessionManager.Middleware)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		renderer.Render(w, req, http.StatusOK, "home", nil)
	})

	// Register page routes
	userHandler.RegisterRoutes(r)
	campgroundHandler.RegisterRoutes(r)
	reviewHandler.RegisterRoutes(r)

	// Static assets and locally stored uploads
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	if cfg.Media.Driver == config.MediaDriverLocal {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Media.BasePath))))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		renderer.Error(w, req, http.StatusNotFound, "ページが見つかりませんでした", nil)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")
	cancelPurge()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "yamacamp_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// newStorage selects the media backend from MEDIA_DRIVER
func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Media.Driver {
	case config.MediaDriverS3:
		return storage.NewS3Storage(context.Background(), cfg.Media.S3, cfg.Media.BaseURL)
	default:
		return storage.NewLocalStorage(cfg.Media.BasePath, cfg.Media.BaseURL), nil
	}
}
