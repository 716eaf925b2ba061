package predictionrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS water_predictions (
	id UUID PRIMARY KEY,
	location_key TEXT NOT NULL,
	lat DOUBLE PRECISION NOT NULL,
	lon DOUBLE PRECISION NOT NULL,
	max_temp DOUBLE PRECISION,
	min_temp DOUBLE PRECISION,
	avg_wind_speed DOUBLE PRECISION,
	avg_humidity DOUBLE PRECISION,
	total_rainfall DOUBLE PRECISION NOT NULL DEFAULT 0,
	elevation DOUBLE PRECISION,
	crop_type TEXT NOT NULL,
	soil_type TEXT NOT NULL,
	plantation_date TEXT NOT NULL,
	water_predicted DOUBLE PRECISION,
	water_predicted_per_area DOUBLE PRECISION,
	next_water_date TEXT,
	water_frequency INTEGER,
	instruction TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
ALTER TABLE water_predictions ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
CREATE INDEX IF NOT EXISTS water_predictions_location_latest_idx ON water_predictions (location_key, created_at DESC, seq DESC);
`

const selectColumns = `
	SELECT id, lat, lon, max_temp, min_temp, avg_wind_speed, avg_humidity, total_rainfall, elevation,
		crop_type, soil_type, plantation_date, water_predicted, water_predicted_per_area,
		next_water_date, water_frequency, instruction, created_at, updated_at
	FROM water_predictions
`

// PostgresRepository persists prediction records in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the prediction table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Create inserts a new record row.
func (r *PostgresRepository) Create(ctx context.Context, rec irrigation.PredictionRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO water_predictions (id, location_key, lat, lon, max_temp, min_temp, avg_wind_speed, avg_humidity,
			total_rainfall, elevation, crop_type, soil_type, plantation_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, rec.ID, rec.Location.Key(), rec.Location.Lat, rec.Location.Lon, rec.MaxTemp, rec.MinTemp, rec.AvgWindSpeed,
		rec.AvgHumidity, rec.TotalRainfall, rec.Elevation, rec.CropType, rec.SoilType, rec.PlantationDate,
		rec.CreatedAt, rec.UpdatedAt)
	return err
}

// Complete writes the prediction fields and returns the updated row.
func (r *PostgresRepository) Complete(ctx context.Context, id uuid.UUID, result irrigation.CalculationResult, at time.Time) (irrigation.PredictionRecord, bool, error) {
	var next *string
	if result.NextWaterDate != "" {
		next = &result.NextWaterDate
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE water_predictions
		SET water_predicted = $1, water_predicted_per_area = $2, next_water_date = $3,
			water_frequency = $4, instruction = $5, updated_at = $6
		WHERE id = $7
		RETURNING id, lat, lon, max_temp, min_temp, avg_wind_speed, avg_humidity, total_rainfall, elevation,
			crop_type, soil_type, plantation_date, water_predicted, water_predicted_per_area,
			next_water_date, water_frequency, instruction, created_at, updated_at
	`, result.WaterPredicted, result.WaterPredictedPerArea, next, result.WaterFrequency, result.Instruction, at, id)
	return scanOptional(row)
}

// Get fetches by primary key.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (irrigation.PredictionRecord, bool, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	return scanOptional(row)
}

// Latest fetches the newest record of loc. seq breaks created_at ties in insertion order.
func (r *PostgresRepository) Latest(ctx context.Context, loc weather.Location) (irrigation.PredictionRecord, bool, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` WHERE location_key = $1 ORDER BY created_at DESC, seq DESC LIMIT 1`, loc.Key())
	return scanOptional(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOptional(row rowScanner) (irrigation.PredictionRecord, bool, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return irrigation.PredictionRecord{}, false, nil
		}
		return irrigation.PredictionRecord{}, false, err
	}
	return rec, true, nil
}

func scanRecord(row rowScanner) (irrigation.PredictionRecord, error) {
	var (
		rec       irrigation.PredictionRecord
		frequency *int32
	)
	if err := row.Scan(&rec.ID, &rec.Location.Lat, &rec.Location.Lon, &rec.MaxTemp, &rec.MinTemp, &rec.AvgWindSpeed,
		&rec.AvgHumidity, &rec.TotalRainfall, &rec.Elevation, &rec.CropType, &rec.SoilType, &rec.PlantationDate,
		&rec.WaterPredicted, &rec.WaterPredictedPerArea, &rec.NextWaterDate, &frequency, &rec.Instruction,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return irrigation.PredictionRecord{}, err
	}
	if frequency != nil {
		value := int(*frequency)
		rec.WaterFrequency = &value
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

var _ irrigation.Repository = (*PostgresRepository)(nil)
