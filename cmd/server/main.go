package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	notesapp "github.com/promissory/backend/internal/application/notes"
	partnerapp "github.com/promissory/backend/internal/application/partner"
	"github.com/promissory/backend/internal/infrastructure/cache"
	"github.com/promissory/backend/internal/infrastructure/config"
	"github.com/promissory/backend/internal/infrastructure/logger"
	"github.com/promissory/backend/internal/infrastructure/persistence"
	"github.com/promissory/backend/internal/infrastructure/storage"
	"github.com/promissory/backend/internal/interfaces/http/handler"
	"github.com/promissory/backend/internal/interfaces/http/middleware"
	"github.com/promissory/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting promissory note backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	noteRepo := persistence.NewGormNoteRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)

	// Debtor directory cache: Redis when configured, in-process otherwise
	debtorCache := cache.NewDebtorCache(cfg.Redis, log)

	// Attachment storage for scanned note images
	var attachmentStorage notesapp.AttachmentStorage
	if cfg.Storage.Provider == "s3" {
		attachmentStorage, err = storage.NewS3AttachmentStorage(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
	} else {
		attachmentStorage = storage.NewStubAttachmentStorage()
		log.Warn("Using stub attachment storage, uploads are not persisted")
	}

	// Application services
	customerService := partnerapp.NewCustomerService(customerRepo, debtorCache)
	noteService := notesapp.NewNoteService(noteRepo, customerService)
	attachmentService := notesapp.NewAttachmentService(attachmentStorage, cfg.Storage.PresignExpiry)

	// HTTP handlers
	noteHandler := handler.NewNoteHandler(noteService, attachmentService)
	customerHandler := handler.NewCustomerHandler(customerService)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so recovery and request logs carry it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.MaxBodySize(cfg.HTTP.MaxBodySize))
	}

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(noteHandler).
		Register(customerHandler).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
