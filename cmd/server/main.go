package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ndquotes/quote-api/internal/config"
	"github.com/ndquotes/quote-api/internal/handler"
	"github.com/ndquotes/quote-api/internal/handler/middleware"
	"github.com/ndquotes/quote-api/internal/ierr"
	"github.com/ndquotes/quote-api/internal/notify"
	"github.com/ndquotes/quote-api/internal/service"
	"github.com/ndquotes/quote-api/internal/storage/postgres"
	"github.com/ndquotes/quote-api/internal/storage/redis"
	"github.com/ndquotes/quote-api/internal/worker"
	"github.com/ndquotes/quote-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting quote-api...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	apiKeyRepo := postgres.NewAPIKeyRepository(dbPool, appLogger)
	keyRequestRepo := postgres.NewKeyRequestRepository(dbPool, appLogger)
	quoteRepo := postgres.NewQuoteRepository(dbPool, appLogger)

	var notifier notify.Notifier
	if cfg.SMTP.Disabled {
		sugarLogger.Warn("SMTP disabled, notification emails will only be logged")
		notifier = notify.NewLogNotifier(appLogger)
	} else {
		notifier = notify.NewSMTPNotifier(&cfg.SMTP, cfg.Admin.Email, cfg.BaseURL, appLogger)
	}

	apiKeyService := service.NewAPIKeyService(apiKeyRepo, appLogger)
	keyRequestService := service.NewKeyRequestService(keyRequestRepo, apiKeyService, notifier, cfg.Keys.AutoApprove, appLogger)
	quoteService := service.NewQuoteService(quoteRepo, appLogger)

	healthHandler := handler.NewHealthHandler(dbPool, redisClient, appLogger)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService, appLogger)
	keyRequestHandler := handler.NewKeyRequestHandler(keyRequestService, appLogger)
	quoteHandler := handler.NewQuoteHandler(quoteService, appLogger)

	apiKeyAuth := middleware.APIKeyAuthMiddleware(apiKeyRepo, appLogger)
	adminAuth := middleware.AdminAuthMiddleware(cfg.Admin.Secret, appLogger)
	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-API-Key",
			"X-Admin-Secret",
		},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(errorMiddleware)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "Quote API",
			"version": "1.0.0",
		})
	})

	api := router.Group("/api")
	{
		quoteRoutes := api.Group("/quotes")
		quoteRoutes.Use(apiKeyAuth)
		{
			quoteRoutes.GET("", quoteHandler.ListPublished)
			quoteRoutes.GET("/random", quoteHandler.Random)
			quoteRoutes.GET("/:id", quoteHandler.GetPublished)
		}

		adminQuoteRoutes := api.Group("/admin/quotes")
		adminQuoteRoutes.Use(adminAuth)
		{
			adminQuoteRoutes.POST("", quoteHandler.Create)
			adminQuoteRoutes.GET("", quoteHandler.ListAll)
			adminQuoteRoutes.GET("/:id", quoteHandler.Get)
			adminQuoteRoutes.PATCH("/:id", quoteHandler.Update)
			adminQuoteRoutes.DELETE("/:id", quoteHandler.Delete)
		}

		keyRequestRoutes := api.Group("/key-requests")
		{
			keyRequestRoutes.POST("", keyRequestHandler.Submit)

			keyRequestRoutes.GET("", adminAuth, keyRequestHandler.List)
			keyRequestRoutes.PATCH("/:id/approve", adminAuth, keyRequestHandler.Approve)
			keyRequestRoutes.PATCH("/:id/reject", adminAuth, keyRequestHandler.Reject)
		}

		keyRoutes := api.Group("/keys")
		keyRoutes.Use(adminAuth)
		{
			keyRoutes.POST("", apiKeyHandler.Create)
			keyRoutes.GET("", apiKeyHandler.List)
			keyRoutes.PATCH("/:id", apiKeyHandler.Update)
			keyRoutes.DELETE("/:id", apiKeyHandler.Delete)
		}
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	g.Go(func() error {
		if err := worker.RunWorkers(groupCtx, cfg, keyRequestRepo, notifier, appLogger); err != nil {
			sugarLogger.Error("Asynq worker failed", zap.Error(err))
			return fmt.Errorf("asynq worker error: %w", err)
		}
		sugarLogger.Info("Asynq workers finished gracefully.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal or component error...")

	waitErr := g.Wait()

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) && !errors.Is(waitErr, http.ErrServerClosed) {
		sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
	} else {
		sugarLogger.Info("Application shutdown successfully.")
	}
}
