package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/farmcast/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)

	// Ingestion notifies farmers, prediction and device POSTs create rows. Completion
	// overwrites the same record fields and is the only POST that may be replayed.
	replayable := &replayableRoutes{}
	api := router.Group("/api/v1")
	{
		api.POST("/weather/ingest", handler.IngestWeather)
		api.GET("/weather/today", handler.TodayWeather)

		api.POST("/predictions", handler.RequestPrediction)
		api.GET("/predictions/latest", handler.LatestPrediction)
		api.GET("/predictions/:id", handler.GetPrediction)
		replayable.post(api, "/predictions/:id/result", handler.CompletePrediction)

		api.POST("/devices", handler.RegisterDevice)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, replayable, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "route", c.FullPath(), "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
