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

	quoteapp "github.com/leadcrm/backend/internal/application/quote"
	"github.com/leadcrm/backend/internal/domain/quote"
	"github.com/leadcrm/backend/internal/infrastructure/config"
	"github.com/leadcrm/backend/internal/infrastructure/logger"
	"github.com/leadcrm/backend/internal/infrastructure/persistence"
	"github.com/leadcrm/backend/internal/infrastructure/rendering"
	"github.com/leadcrm/backend/internal/infrastructure/sequence"
	"github.com/leadcrm/backend/internal/infrastructure/storage"
	"github.com/leadcrm/backend/internal/interfaces/http/handler"
	"github.com/leadcrm/backend/internal/interfaces/http/middleware"
	"github.com/leadcrm/backend/internal/interfaces/http/router"
)

// expireSweepInterval is how often overdue quotes are flipped to expired
const expireSweepInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewFrom(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting LeadCRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with zap-backed GORM logging
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	clientDir := persistence.NewGormClientDirectory(db.DB)
	projectStore := persistence.NewGormProjectStore(db.DB)
	docRepo := persistence.NewGormDocumentRepository(db.DB)

	// Quote number allocator: Redis when configured, database counter otherwise
	var allocator quote.NumberAllocator
	if cfg.Redis.Enabled() {
		redisAllocator, err := sequence.NewRedisAllocator(sequence.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisAllocator.Close(); err != nil {
				log.Error("Error closing Redis allocator", zap.Error(err))
			}
		}()
		allocator = redisAllocator
		log.Info("Quote numbering backed by Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		allocator = sequence.NewGormAllocator(db.DB)
		log.Info("Quote numbering backed by database counter")
	}

	// Artifact storage chain: S3 then local filesystem, inline terminator
	// is always appended so storage can never fail a render outright
	var strategies []storage.Strategy
	if cfg.Storage.Bucket != "" {
		s3Strategy, err := storage.NewS3Strategy(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		strategies = append(strategies, s3Strategy)
		log.Info("S3 artifact storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	}
	if cfg.Storage.LocalBasePath != "" {
		fsStrategy, err := storage.NewFilesystemStrategy(cfg.Storage.LocalBasePath, cfg.Storage.LocalBaseURL, log)
		if err != nil {
			log.Fatal("Failed to initialize filesystem storage", zap.Error(err))
		}
		strategies = append(strategies, fsStrategy)
		log.Info("Filesystem artifact storage enabled", zap.String("path", cfg.Storage.LocalBasePath))
	}
	chain := storage.NewChain(log, strategies...)

	// PDF rendering
	templateEngine, err := rendering.NewTemplateEngine()
	if err != nil {
		log.Fatal("Failed to initialize template engine", zap.Error(err))
	}
	renderer, err := rendering.NewChromedpRenderer(&rendering.ChromedpConfig{
		DefaultTimeout: cfg.Render.Timeout,
		RemoteURL:      cfg.Render.ChromeURL,
		NoSandbox:      cfg.Render.ChromeNoSandbox,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer renderer.Close()

	// Application services
	quoteService := quoteapp.NewQuoteService(
		quoteRepo, clientDir, projectStore, docRepo,
		allocator, chain, cfg.Quote, cfg.Business, log,
	)
	renderService := quoteapp.NewRenderService(
		quoteRepo, docRepo, templateEngine, renderer,
		chain, cfg.Render, cfg.Quote.MaxAttachmentBytes, log,
	)

	// HTTP handlers
	quoteHandler := handler.NewQuoteHandler(quoteService, renderService, cfg.Quote.MaxAttachmentBytes)
	documentHandler := handler.NewDocumentHandler(quoteService)
	systemHandler := handler.NewSystemHandler()

	// Gin setup
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, "/health", "/api/v1/system/ping"))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithHealthCheck(healthHandler(db)),
	)
	r.Register(quoteHandler).
		Register(documentHandler).
		Register(systemHandler)
	r.Setup()

	// Background sweep that expires quotes past their validity window
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go expireSweep(sweepCtx, quoteService, log)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
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

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// expireSweep periodically flips overdue quotes to expired status
func expireSweep(ctx context.Context, svc *quoteapp.QuoteService, log *zap.Logger) {
	ticker := time.NewTicker(expireSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			affected, err := svc.ExpireOverdue(ctx)
			if err != nil {
				log.Error("Expire sweep failed", zap.Error(err))
				continue
			}
			if affected > 0 {
				log.Info("Expired overdue quotes", zap.Int64("count", affected))
			}
		}
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
