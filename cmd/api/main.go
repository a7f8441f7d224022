package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/sjperalta/dealer-ledger/internal/app"
	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/handlers"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

// @title Dealer Ledger API
// @version 1.0
// @description Ledger, installment plans, invoices, reports and backups for a car dealership
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.SetupWithLevel(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(cfg, cfg.WorkerCount)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// First run: one account per role
	seeded, err := a.Services.Auth.SeedDefaultUsers(context.Background())
	if err != nil {
		logger.Error("Failed to seed default users", "error", err)
	} else if seeded > 0 {
		logger.Warn("Seeded default users; change their passwords", "count", seeded)
	}

	// Schedule recurring jobs
	a.Services.Job.StartStatusRefresh(cfg.StatusRefreshInterval)
	logger.Info("Scheduled recurring jobs", "status_refresh", cfg.StatusRefreshInterval)

	h := handlers.NewHandlers(a.Services, a.Handle)
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Drains in-flight renders, then closes the database
	a.Close()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	h.Register(router.Group("/api/v1"), cfg.JWTSecret)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	return c
}
