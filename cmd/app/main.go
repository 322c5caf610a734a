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

	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server-go/internal/http/routes"
	"github.com/studyhub/studyhub-server-go/pkg/cache"
	"github.com/studyhub/studyhub-server-go/pkg/config"
	"github.com/studyhub/studyhub-server-go/pkg/database"
	"github.com/studyhub/studyhub-server-go/pkg/email"
	"github.com/studyhub/studyhub-server-go/pkg/jobs"
	"github.com/studyhub/studyhub-server-go/pkg/logger"
	"github.com/studyhub/studyhub-server-go/pkg/metrics"
	"github.com/studyhub/studyhub-server-go/pkg/middleware"
	"github.com/studyhub/studyhub-server-go/pkg/request"
	"github.com/studyhub/studyhub-server-go/pkg/stripe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	cacheClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Error("redis connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cacheClient.Close()

	emailClient := email.NewClient(
		cfg.Email.Host,
		cfg.Email.Port,
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.From,
	)

	stripeClient := stripe.NewClient(
		cfg.Stripe.SecretKey,
		cfg.Stripe.BaseURL,
		cfg.Stripe.SuccessURL,
		cfg.Stripe.Currency,
	)

	if cfg.Jobs.Enabled {
		scheduler := jobs.NewScheduler(appLogger)
		scheduler.AddJob(
			jobs.NewDeactivateStaleUsersJob(db, cfg.Jobs.InactivityThreshold, appLogger),
			cfg.Jobs.DeactivationSweep,
		)
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := gin.New()

	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())                        // Add request IDs for tracing
	router.Use(middleware.Compression(middleware.BestSpeed))  // Compress responses (gzip)
	router.Use(middleware.RequestLogger(appLogger))           // Log all requests
	router.Use(middleware.SecurityHeaders())                  // Add security headers
	router.Use(middleware.CacheControl())                     // Set cache headers
	router.Use(middleware.RequestSizeLimit(10 * 1024 * 1024)) // 10MB limit
	router.Use(metrics.Middleware())                          // Collect Prometheus metrics
	router.Use(request.Handler(appLogger))                    // Request context handler

	// Rate limiting (100 requests per minute per IP); shared counters
	// when Redis is configured, per-instance token bucket otherwise
	if cacheClient.Enabled() {
		router.Use(middleware.NewRedisRateLimiter(cacheClient, 100, time.Minute).Middleware())
	} else {
		router.Use(middleware.NewRateLimiter(100, time.Minute).Middleware())
	}

	routes.Register(router, cfg, db, appLogger, cacheClient, emailClient, stripeClient)

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	appLogger.Info("server started successfully")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}
