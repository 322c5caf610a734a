package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/auth"
	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/coursesub"
	"github.com/studyhub/studyhub-server-go/internal/features/lesson"
	"github.com/studyhub/studyhub-server-go/internal/features/payment"
	"github.com/studyhub/studyhub-server-go/internal/features/user"
	"github.com/studyhub/studyhub-server-go/internal/notify"
	"github.com/studyhub/studyhub-server-go/pkg/cache"
	"github.com/studyhub/studyhub-server-go/pkg/config"
	"github.com/studyhub/studyhub-server-go/pkg/email"
	"github.com/studyhub/studyhub-server-go/pkg/health"
	"github.com/studyhub/studyhub-server-go/pkg/middleware"
	"github.com/studyhub/studyhub-server-go/pkg/stripe"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, logger *slog.Logger, cacheClient cache.Client, emailClient *email.Client, stripeClient *stripe.Client) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(db, cacheClient, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Database stats endpoint (protected in production)
	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	api := engine.Group("/api")

	authRequired := middleware.AuthMiddleware(db, cfg.JWTSecret, logger)

	authHandler := auth.NewHandler(db, logger, cfg, emailClient)
	auth.RegisterRoutes(api, authHandler)

	userHandler := user.NewHandler(db, logger)
	user.RegisterRoutes(api, userHandler, authRequired)

	dispatcher := notify.NewDispatcher(db, emailClient, logger)

	courseHandler := course.NewHandler(db, logger, dispatcher)
	course.RegisterRoutes(api, courseHandler, authRequired)

	lessonHandler := lesson.NewHandler(db, logger)
	lesson.RegisterRoutes(api, lessonHandler, authRequired)

	subscriptionHandler := coursesub.NewHandler(db, logger)
	coursesub.RegisterRoutes(api, subscriptionHandler, authRequired)

	paymentHandler := payment.NewHandler(db, logger, stripeClient)
	payment.RegisterRoutes(api, paymentHandler, authRequired)
}
