package irrigation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/farmcast/internal/domain/weather"
	apperrors "github.com/yanqian/farmcast/pkg/errors"
)

// ErrCalculationPending is returned by calculators that accepted the job and will complete
// the record later through CompleteCalculation.
var ErrCalculationPending = errors.New("calculation pending")

// Config holds the prediction knobs.
type Config struct {
	TrailingDays       int
	CalculationTimeout time.Duration
	PollInterval       time.Duration
	Zone               *time.Location
}

// Repository persists prediction records.
type Repository interface {
	Create(ctx context.Context, rec PredictionRecord) error
	// Complete fills the prediction fields of the record with id. found is false for unknown ids.
	Complete(ctx context.Context, id uuid.UUID, result CalculationResult, at time.Time) (PredictionRecord, bool, error)
	Get(ctx context.Context, id uuid.UUID) (PredictionRecord, bool, error)
	// Latest returns the most recently created record for loc.
	Latest(ctx context.Context, loc weather.Location) (PredictionRecord, bool, error)
}

// WeatherReader is the read side of the weather store.
type WeatherReader interface {
	ReadTrailingAggregates(ctx context.Context, loc weather.Location, windowDays int, now time.Time) (weather.TrailingAggregate, bool, error)
}

// ElevationProvider looks up terrain elevation in meters. ok is false when unavailable.
type ElevationProvider interface {
	Elevation(ctx context.Context, loc weather.Location) (float64, bool, error)
}

// Calculator turns aggregates and crop metadata into a recommendation. Asynchronous
// implementations return ErrCalculationPending.
type Calculator interface {
	Calculate(ctx context.Context, req CalculationRequest) (CalculationResult, error)
}

// Service exposes water predictions.
type Service interface {
	RequestPrediction(ctx context.Context, req PredictionRequest) (PredictionRecord, error)
	LatestPrediction(ctx context.Context, loc weather.Location) (PredictionRecord, error)
	GetPrediction(ctx context.Context, id uuid.UUID) (PredictionRecord, error)
	CompleteCalculation(ctx context.Context, id uuid.UUID, result CalculationResult) (PredictionRecord, error)
}

type service struct {
	cfg        Config
	weather    WeatherReader
	elevation  ElevationProvider
	calculator Calculator
	repo       Repository
	logger     *slog.Logger
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewService wires the prediction pipeline.
func NewService(cfg Config, weatherReader WeatherReader, elevation ElevationProvider, calculator Calculator, repo Repository, logger *slog.Logger) Service {
	if cfg.TrailingDays <= 0 {
		cfg.TrailingDays = 5
	}
	if cfg.CalculationTimeout <= 0 {
		cfg.CalculationTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Zone == nil {
		cfg.Zone = time.UTC
	}
	return &service{
		cfg:        cfg,
		weather:    weatherReader,
		elevation:  elevation,
		calculator: calculator,
		repo:       repo,
		logger:     logger.With("component", "irrigation.service"),
		now:        time.Now,
		newID:      uuid.New,
	}
}

func (s *service) RequestPrediction(ctx context.Context, req PredictionRequest) (PredictionRecord, error) {
	req, loc, err := req.Validate()
	if err != nil {
		return PredictionRecord{}, err
	}

	now := s.now().In(s.cfg.Zone)
	aggregates, found, err := s.weather.ReadTrailingAggregates(ctx, loc, s.cfg.TrailingDays, now)
	if err != nil {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeStoreError, "read weather history", err)
	}
	if !found {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeNoWeatherHistory, "no weather history for location", nil)
	}

	rec := PredictionRecord{
		ID:             s.newID(),
		Location:       loc,
		MaxTemp:        aggregates.MaxTemp,
		MinTemp:        aggregates.MinTemp,
		AvgWindSpeed:   aggregates.AvgWindSpeed,
		AvgHumidity:    aggregates.AvgHumidity,
		TotalRainfall:  aggregates.TotalRainfall,
		Elevation:      s.lookupElevation(ctx, loc),
		CropType:       req.CropType,
		SoilType:       req.SoilType,
		PlantationDate: req.PlantationDate,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeStoreError, "persist prediction record", err)
	}
	logger := s.logger.With("prediction_id", rec.ID, "location", loc.Key())
	logger.Info("prediction record created", "crop", rec.CropType, "soil", rec.SoilType, "elevation_known", rec.Elevation != nil)

	completed, err := s.calculate(ctx, rec)
	if err != nil {
		logger.Warn("water calculation failed", "error", err)
		rec.CalculationFailed = true
		return rec, nil
	}
	logger.Info("prediction completed", "water_predicted", *completed.WaterPredicted)
	return completed, nil
}

func (s *service) lookupElevation(ctx context.Context, loc weather.Location) *float64 {
	if s.elevation == nil {
		return nil
	}
	value, ok, err := s.elevation.Elevation(ctx, loc)
	if err != nil {
		s.logger.Warn("elevation lookup failed, storing without elevation", "location", loc.Key(), "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &value
}

// calculate runs the calculator within the configured timeout and returns the completed record.
func (s *service) calculate(ctx context.Context, rec PredictionRecord) (PredictionRecord, error) {
	calcCtx, cancel := context.WithTimeout(ctx, s.cfg.CalculationTimeout)
	defer cancel()

	result, err := s.calculator.Calculate(calcCtx, CalculationRequest{
		ID:             rec.ID,
		Location:       rec.Location,
		Aggregates:     rec.Aggregates(),
		Elevation:      rec.Elevation,
		CropType:       rec.CropType,
		SoilType:       rec.SoilType,
		PlantationDate: rec.PlantationDate,
	})
	switch {
	case err == nil:
		updated, found, err := s.repo.Complete(calcCtx, rec.ID, result, s.now().UTC())
		if err != nil {
			return PredictionRecord{}, apperrors.Wrap(apperrors.CodeStoreError, "persist prediction result", err)
		}
		if !found {
			return PredictionRecord{}, apperrors.Wrap(apperrors.CodeNotFound, "prediction record vanished", nil)
		}
		return updated, nil
	case errors.Is(err, ErrCalculationPending):
		return s.awaitCompletion(calcCtx, rec.ID)
	default:
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeCalculationFailed, "water calculation failed", err)
	}
}

// awaitCompletion polls the record until an out-of-process calculator fills it or ctx expires.
func (s *service) awaitCompletion(ctx context.Context, id uuid.UUID) (PredictionRecord, error) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		rec, found, err := s.repo.Get(ctx, id)
		if err == nil && found && rec.Completed() {
			return rec, nil
		}
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("prediction poll failed", "prediction_id", id, "error", err)
		}
		select {
		case <-ctx.Done():
			return PredictionRecord{}, apperrors.Wrap(apperrors.CodeCalculationFailed, "water calculation timed out", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *service) LatestPrediction(ctx context.Context, loc weather.Location) (PredictionRecord, error) {
	if err := loc.Validate(); err != nil {
		return PredictionRecord{}, err
	}
	rec, found, err := s.repo.Latest(ctx, loc)
	if err != nil {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeStoreError, "load latest prediction", err)
	}
	if !found {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeNotFound, "no prediction for location", nil)
	}
	return rec, nil
}

func (s *service) GetPrediction(ctx context.Context, id uuid.UUID) (PredictionRecord, error) {
	rec, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeStoreError, "load prediction", err)
	}
	if !found {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeNotFound, "prediction not found", nil)
	}
	return rec, nil
}

func (s *service) CompleteCalculation(ctx context.Context, id uuid.UUID, result CalculationResult) (PredictionRecord, error) {
	rec, found, err := s.repo.Complete(ctx, id, result, s.now().UTC())
	if err != nil {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeStoreError, "persist prediction result", err)
	}
	if !found {
		return PredictionRecord{}, apperrors.Wrap(apperrors.CodeNotFound, "prediction not found", nil)
	}
	s.logger.Info("prediction result recorded", "prediction_id", id, "location", rec.Location.Key())
	return rec, nil
}
