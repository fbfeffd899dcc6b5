package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/activities"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/billing"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/catalog"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/hotels"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/planner"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/schedule"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain/trip"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/middleware"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/cache"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
)

// AppHandlers groups the HTTP handlers wired at startup.
type AppHandlers struct {
	Schedules  *schedule.Handler
	Trip       *trip.Handler
	Hotels     *hotels.Handler
	Activities *activities.Handler

	Sessions *trip.SessionStore
}

// Setup builds the dependency graph and registers all routes.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *AppHandlers {
	handlers := setupDependencies(dbPool, cfg, log)
	setupRouter(r, handlers, cfg, log)
	return handlers
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *AppHandlers {
	sessions := trip.NewSessionStore(cfg.Session, log)
	caches := cache.NewCacheManager(log)

	loader := catalog.NewLoader(log)
	ranker := catalog.NewRanker(log)
	plnr := planner.NewPlanner(log)

	var payments billing.PaymentProvider = billing.NoopProvider{}
	if cfg.Billing.StripeKey != "" {
		payments = billing.NewStripeProvider(cfg.Billing.StripeKey, log)
	}

	scheduleRepo := schedule.NewRepository(dbPool, cfg.ShareBaseURL, log)
	scheduleService := schedule.NewService(scheduleRepo, loader, ranker, plnr, sessions, payments, caches, cfg, log)

	hotelStore := hotels.NewStore(cfg.Catalog.HotelSource, log)
	activityRepo := activities.NewRepository(dbPool, log)

	return &AppHandlers{
		Schedules:  schedule.NewHandler(scheduleService, log),
		Trip:       trip.NewHandler(sessions, log),
		Hotels:     hotels.NewHandler(hotelStore, log),
		Activities: activities.NewHandler(activityRepo, log),
		Sessions:   sessions,
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, cfg *config.Config, log *zap.Logger) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Shared views are public; the token is the credential.
	r.GET("/view-schedule/:token/", h.Schedules.ViewShared)
	r.GET("/view-schedule/:token", h.Schedules.ViewShared)

	auth := middleware.JWTAuthMiddleware(middleware.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Logger:    log,
	})

	api := r.Group("/api/v1")
	api.Use(auth)
	{
		api.POST("/schedules", h.Schedules.Create)
		api.GET("/schedules", h.Schedules.List)
		api.DELETE("/schedules/:id", h.Schedules.Delete)

		api.GET("/trip", h.Trip.GetContext)
		api.PUT("/trip/:field", h.Trip.SetField)

		api.GET("/hotels", h.Hotels.List)
		api.GET("/hotels/top", h.Hotels.Top)
		api.GET("/hotels/:name", h.Hotels.Get)
		api.POST("/hotels", h.Hotels.Create)
		api.PATCH("/hotels/:name", h.Hotels.Update)
		api.DELETE("/hotels/:name", h.Hotels.Delete)

		api.POST("/activities", h.Activities.Create)
		api.GET("/activities", h.Activities.List)
		api.DELETE("/activities/:id", h.Activities.Delete)
	}
}
