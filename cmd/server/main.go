// @title           Presence Service API
// @version         1.0
// @description     Real-time user presence for the CRM backend
// @BasePath        /api/presence

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"presence-service/internal/config"
	"presence-service/internal/database"
	"presence-service/internal/handler"
	"presence-service/internal/job"
	"presence-service/internal/middleware"
	"presence-service/internal/repository"
	"presence-service/internal/router"
	"presence-service/internal/service"
	"presence-service/internal/ws"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Presence Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("base_path", cfg.Server.BasePath))

	db, err := database.New(cfg.Database.URL, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient := database.NewRedis(cfg.Redis.URL, logger)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)

	// User directory collaborator
	directory := service.NewDirectoryService(userRepo, presenceRepo, redisClient, logger)

	// Presence core: one registry instance per process, shared by the
	// dispatcher and lifecycle handler
	registry := ws.NewRegistry()
	dispatcher := ws.NewDispatcher(registry, directory, logger)
	lifecycle := ws.NewLifecycle(registry, directory, dispatcher, logger)

	// Handlers
	wsHandler := handler.NewWSHandler(lifecycle, logger)
	presenceHandler := handler.NewPresenceHandler(registry, directory, logger)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	validator := middleware.NewAuthServiceValidator(cfg.Auth.ServiceURL, cfg.Auth.SecretKey, logger)

	r := router.Setup(router.Config{
		Logger:          logger,
		Env:             cfg.Server.Env,
		BasePath:        cfg.Server.BasePath,
		CORSOrigins:     cfg.Server.CORSOrigins,
		Validator:       validator,
		WSHandler:       wsHandler,
		PresenceHandler: presenceHandler,
		HealthHandler:   healthHandler,
	})

	// Reconcile persisted presence rows once at startup and every minute
	syncJob := job.NewPresenceSyncJob(presenceRepo, registry, logger)
	syncJob.Run()

	c := cron.New()
	if _, err := c.AddJob("@every 1m", syncJob); err != nil {
		logger.Error("Failed to schedule presence sync job", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Presence Service started successfully",
			zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
