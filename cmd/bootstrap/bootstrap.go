package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doctor-listing-service/config"
	deliveryHttp "doctor-listing-service/internal/delivery/http"
	"doctor-listing-service/internal/delivery/http/handler"
	"doctor-listing-service/internal/delivery/http/middleware"
	"doctor-listing-service/internal/infrastructure/cache"
	"doctor-listing-service/internal/infrastructure/database"
	"doctor-listing-service/internal/repository"
	"doctor-listing-service/internal/service"
	"doctor-listing-service/internal/usecase"
	"doctor-listing-service/migrations"
	"doctor-listing-service/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config         *config.Config
	DB             *gorm.DB
	RedisClient    *redis.Client
	Server         *http.Server
	SessionService *service.ListingSessionService
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App)
	log.Info("Configuration loaded successfully")

	// Apply schema migrations
	if cfg.DB.AutoMigrate {
		if err := database.RunMigrations(cfg.DB, migrations.FS, log); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	// Initialize all layers
	app.Server, app.SessionService = initializeServer(cfg, log, db, redisClient)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client) (*http.Server, *service.ListingSessionService) {
	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	doctorRepo := repository.NewDoctorRepository(db)
	listingCacheRepo := repository.NewListingCacheRepository(redisClient)

	// Initialize usecases
	listingUsecase := usecase.NewDoctorListingUsecase(log, doctorRepo, listingCacheRepo, cfg.Listing)

	// Initialize services
	sessionService := service.NewListingSessionService(listingUsecase, listingCacheRepo, log, cfg.Listing)

	// Initialize handlers
	doctorHandler := handler.NewDoctorHandler(listingUsecase, customValidator, cfg.Listing.PageSize)
	listingHandler := handler.NewListingHandler(sessionService, customValidator)

	// Initialize middleware
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins)

	// Initialize router
	router := deliveryHttp.NewRouter(doctorHandler, listingHandler, corsMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, sessionService
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close stops background services, then closes connections (database, redis, etc.)
func (app *App) Close() {
	// Stop in-flight listing queries before their connections go away
	if app.SessionService != nil {
		app.SessionService.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
