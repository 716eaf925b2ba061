package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/notify"
	"github.com/yanqian/farmcast/internal/domain/weather"
	apperrors "github.com/yanqian/farmcast/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	weatherSvc    weather.Service
	irrigationSvc irrigation.Service
	notifySvc     notify.Service
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(weatherSvc weather.Service, irrigationSvc irrigation.Service, notifySvc notify.Service, logger *slog.Logger) *Handler {
	return &Handler{
		weatherSvc:    weatherSvc,
		irrigationSvc: irrigationSvc,
		notifySvc:     notifySvc,
		logger:        logger.With("component", "http.handler"),
	}
}

type locationQuery struct {
	Lat *float64 `form:"lat"`
	Lon *float64 `form:"lon"`
}

func bindLocation(c *gin.Context) (weather.Location, bool) {
	var query locationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, badRequest(err))
		return weather.Location{}, false
	}
	loc, err := weather.IngestRequest{Lat: query.Lat, Lon: query.Lon}.Location()
	if err != nil {
		abortWithDomainError(c, err)
		return weather.Location{}, false
	}
	return loc, true
}

func bindPredictionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "prediction id must be a uuid", err))
		return uuid.Nil, false
	}
	return id, true
}

// IngestWeather runs one ingestion cycle for the posted location.
func (h *Handler) IngestWeather(c *gin.Context) {
	var req weather.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	result, err := h.weatherSvc.Ingest(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("ingest request failed", "stage", result.FailedAt, "error", err)
		httpErr := domainError(err)
		if result.FailedAt != "" {
			httpErr.WithResult(result)
		}
		abortWithError(c, httpErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TodayWeather returns the current day summary.
func (h *Handler) TodayWeather(c *gin.Context) {
	loc, ok := bindLocation(c)
	if !ok {
		return
	}

	summary, err := h.weatherSvc.Today(c.Request.Context(), loc)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"minTemp":   summary.MinTemp,
		"maxTemp":   summary.MaxTemp,
		"condition": summary.Condition,
		"date":      summary.Date,
	})
}

// RequestPrediction creates a prediction record and runs the water calculation.
func (h *Handler) RequestPrediction(c *gin.Context) {
	var req irrigation.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	rec, err := h.irrigationSvc.RequestPrediction(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// LatestPrediction returns the newest prediction for a location.
func (h *Handler) LatestPrediction(c *gin.Context) {
	loc, ok := bindLocation(c)
	if !ok {
		return
	}

	rec, err := h.irrigationSvc.LatestPrediction(c.Request.Context(), loc)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetPrediction returns one prediction by id.
func (h *Handler) GetPrediction(c *gin.Context) {
	id, ok := bindPredictionID(c)
	if !ok {
		return
	}

	rec, err := h.irrigationSvc.GetPrediction(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// CompletePrediction accepts results from out-of-process calculators.
func (h *Handler) CompletePrediction(c *gin.Context) {
	id, ok := bindPredictionID(c)
	if !ok {
		return
	}
	var req irrigation.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	result, err := req.Result()
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	rec, err := h.irrigationSvc.CompleteCalculation(c.Request.Context(), id, result)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// RegisterDevice subscribes a device to weather alerts.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req notify.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	sub, err := h.notifySvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
