package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/jobs"
	"docvault/internal/otel"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	userRepo := postgres.NewUserPostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	permRepo := postgres.NewPermissionPostgres(db)
	metaRepo := postgres.NewMetadataPostgres(db)
	tokenRepo := postgres.NewTokenPostgres(db)

	authSvc := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	docSvc := service.NewDocumentService(docRepo, permRepo, objStore, logger)
	permSvc := service.NewPermissionService(docRepo, permRepo, userRepo, logger)
	metaSvc := service.NewMetadataService(docRepo, permRepo, metaRepo, logger)
	shareSvc := service.NewShareService(docRepo, permRepo, tokenRepo, objStore, cfg.Link.DefaultTTL, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		logger.Fatal("failed to register http metrics", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(logger),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(promMW.Handler())
	app.Use(middleware.NewRateLimiter(20, 40).Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.New(db, authSvc, docSvc, permSvc, metaSvc, shareSvc),
		middleware.Auth(authSvc, userRepo))

	sweeper := jobs.NewSweeper(tokenRepo, cfg.Link.SweepInterval, logger)
	go sweeper.Run(ctx)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
