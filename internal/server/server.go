// Package server
//
// @title IQ Testim Admin API
// @version 1.0
// @description Administrative backend for the IQ Testim quiz platform
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iqtestim/iqadmin/internal/auth"
	"github.com/iqtestim/iqadmin/internal/config"
	"github.com/iqtestim/iqadmin/internal/models"
	"github.com/iqtestim/iqadmin/internal/seed"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	asynqClient *asynq.Client
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Load JWT secret from database (auto-generated during first setup)
	var settings models.Settings
	if err := db.First(&settings).Error; err == nil {
		auth.InitializeJWT(settings.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
	} else {
		// No settings yet - first setup hasn't happened.
		// JWT will be initialized during setupFirstAdmin.
		zlog.Info().Msg("No settings found - JWT will be initialized during first setup")
	}

	// Load seed fixtures if configured
	if cfg.SeedFile != "" {
		if err := seed.LoadFile(db, cfg.SeedFile, zlog); err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
	}

	// Initialize validator
	validate := validator.New()

	// Slugs must be safe for URLs
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= '0' && char <= '9') ||
				char == '-') {
				return false
			}
		}
		return value != ""
	})

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Create server
	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		validator:   validate,
		asynqClient: asynqClient,
		version:     version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
		cacheSize       = 10000
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas directly. WAL mode must be set first for
	// optimal concurrency.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware for the hosted console
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/setup", s.setupFirstAdmin)
	s.router.POST("/api/auth/login", s.login)

	// Authenticated API routes (JWT + privileged role required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	api.Use(PrivilegedOnlyMiddleware(s.logger))
	api.Use(ActivityMiddleware(s.db, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getCurrentUser)

		// User management
		userRoutes := api.Group("/users")
		{
			userRoutes.GET("", s.listUsers)
			userRoutes.POST("", s.createUser)
			userRoutes.PUT("/:id", s.updateUser)
			userRoutes.DELETE("/:id", SuperAdminOnlyMiddleware(s.logger), s.deleteUser)
		}

		// Categories
		api.GET("/categories", s.listCategories)
		api.POST("/categories", s.createCategory)
		api.PUT("/categories/:id", s.updateCategory)
		api.PATCH("/categories/:id/toggle", s.toggleCategory)
		api.DELETE("/categories/:id", s.deleteCategory)

		// Questions
		api.GET("/questions", s.listQuestions)
		api.POST("/questions", s.createQuestion)
		api.PUT("/questions/:id", s.updateQuestion)
		api.DELETE("/questions/:id", s.deleteQuestion)

		// Tests
		api.GET("/tests", s.listTests)
		api.POST("/tests", s.createTest)
		api.PUT("/tests/:id", s.updateTest)
		api.DELETE("/tests/:id", s.deleteTest)

		// Test results
		api.GET("/test-results", s.listTestResults)
		api.GET("/test-results/analytics/overview", s.testResultAnalytics)
		api.DELETE("/test-results/:id", s.deleteTestResult)

		// Subscription plans
		api.GET("/subscription-plans", s.listSubscriptionPlans)
		api.GET("/subscription-plans/analytics/overview", s.subscriptionPlanAnalytics)
		api.POST("/subscription-plans", s.createSubscriptionPlan)
		api.PUT("/subscription-plans/:id", s.updateSubscriptionPlan)
		api.DELETE("/subscription-plans/:id", s.deleteSubscriptionPlan)

		// Subscriptions
		api.GET("/subscriptions", s.listSubscriptions)
		api.GET("/subscriptions/analytics/overview", s.subscriptionAnalytics)
		api.POST("/subscriptions", s.createSubscription)
		api.PUT("/subscriptions/:id", s.updateSubscription)
		api.DELETE("/subscriptions/:id", s.deleteSubscription)

		// Blog
		api.GET("/blog", s.listBlogPosts)
		api.GET("/blog/stats/overview", s.blogStats)
		api.POST("/blog", s.createBlogPost)
		api.PUT("/blog/:id", s.updateBlogPost)
		api.DELETE("/blog/:id", s.deleteBlogPost)

		// Pages
		api.GET("/pages", s.listPages)
		api.GET("/pages/analytics/overview", s.pageAnalytics)
		api.POST("/pages", s.createPage)
		api.PUT("/pages/:id", s.updatePage)
		api.PATCH("/pages/:id/toggle-publish", s.togglePagePublish)
		api.PATCH("/pages/:id/toggle-featured", s.togglePageFeatured)
		api.DELETE("/pages/:id", s.deletePage)

		// Campaigns
		api.GET("/campaigns", s.listCampaigns)
		api.GET("/campaigns/analytics/overview", s.campaignAnalytics)
		api.POST("/campaigns", s.createCampaign)
		api.PUT("/campaigns/:id", s.updateCampaign)
		api.DELETE("/campaigns/:id", s.deleteCampaign)

		// Pixels
		api.GET("/pixels", s.listPixels)
		api.GET("/pixels/stats/overview", s.pixelStats)
		api.POST("/pixels", s.createPixel)
		api.PUT("/pixels/:id", s.updatePixel)
		api.DELETE("/pixels/:id", s.deletePixel)

		// Notifications
		api.GET("/notifications", s.listNotifications)
		api.GET("/notifications/stats/overview", s.notificationStats)
		api.POST("/notifications", s.createNotification)
		api.POST("/notifications/:id/send", s.sendNotification)
		api.DELETE("/notifications/:id", s.deleteNotification)

		// Admin activity trail & dashboard
		api.GET("/admin-activities", s.listAdminActivities)
		api.GET("/admin-activities/stats/dashboard", s.activityDashboardStats)
		api.GET("/admin/dashboard-overview", s.dashboardOverview)

		// Settings
		api.GET("/config", s.getSettings)
		api.PATCH("/config", s.updateSettings)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "iqadmin-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Router returns the gin engine, used in handler tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.HTTP.Addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", s.config.HTTP.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	return nil
}
