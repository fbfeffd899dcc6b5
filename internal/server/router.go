package server

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appmiddleware "github.com/FACorreiaa/loci-trip-engine/internal/app/middleware"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
	"github.com/FACorreiaa/loci-trip-engine/internal/routes"
)

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
	}))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(appmiddleware.CORSMiddleware())
	r.Use(appmiddleware.SecurityMiddleware())
	r.Use(func(c *gin.Context) {
		c.Set("db", dbPool)
		c.Next()
	})

	routes.Setup(r, dbPool, cfg, logger)

	return r
}

// zapContextFunc returns the Zap context function for logging
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get("X-Request-Id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		return fields
	}
}
