package router

import (
	"time"

	"fuelsurcharge/internal/config"
	"fuelsurcharge/internal/handler"
	"fuelsurcharge/internal/middleware"
	"fuelsurcharge/internal/repository"
	"fuelsurcharge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services are built by the caller because the scheduler and the trigger
// loop outlive any single request.
type Services struct {
	Updates   service.UpdateService
	Settings  service.SettingsService
	Scheduler handler.ScheduleController
}

// New wires all handlers and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(600, time.Minute)) // 600 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	priceRepo := repository.NewPriceRecordRepository(db)
	logRepo := repository.NewActivityLogRepository(db)

	// ── Handlers ─────────────────────────────────────────────────────────────
	pricesH := handler.NewPricesHandler(priceRepo, svc.Settings)
	updatesH := handler.NewUpdatesHandler(svc.Updates)
	settingsH := handler.NewSettingsHandler(svc.Settings)
	scheduleH := handler.NewScheduleHandler(svc.Scheduler, svc.Settings)
	logsH := handler.NewLogsHandler(logRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pub := r.Group("/v1")
	{
		pub.GET("/prices/latest", pricesH.Latest)
		pub.GET("/prices", pricesH.List)
		pub.GET("/regions", pricesH.Regions)
		pub.GET("/formula", pricesH.Formula)
		pub.GET("/schedule", scheduleH.Get)
	}

	// Admin
	admin := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/updates", middleware.UpdateRateLimiter(10, time.Minute), updatesH.Run)
		admin.GET("/updates/connection-test", updatesH.ConnectionTest)

		admin.GET("/settings", settingsH.Get)
		admin.PUT("/settings", settingsH.Update)

		admin.POST("/schedule", scheduleH.Apply)
		admin.DELETE("/schedule", scheduleH.Clear)

		admin.GET("/logs", logsH.List)
	}

	return r
}
