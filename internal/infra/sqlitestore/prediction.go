package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/weather"
)

const predictionColumns = `
	SELECT id, lat, lon, max_temp, min_temp, avg_wind_speed, avg_humidity, total_rainfall, elevation,
		crop_type, soil_type, plantation_date, water_predicted, water_predicted_per_area,
		next_water_date, water_frequency, instruction, created_at, updated_at
	FROM water_predictions
`

// PredictionStore implements irrigation.Repository on SQLite.
type PredictionStore struct {
	db *sql.DB
}

// NewPredictionStore wraps an opened database.
func NewPredictionStore(db *sql.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

func (s *PredictionStore) Create(ctx context.Context, rec irrigation.PredictionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO water_predictions (id, location_key, lat, lon, max_temp, min_temp, avg_wind_speed, avg_humidity,
			total_rainfall, elevation, crop_type, soil_type, plantation_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.Location.Key(), rec.Location.Lat, rec.Location.Lon, nullFloat(rec.MaxTemp), nullFloat(rec.MinTemp),
		nullFloat(rec.AvgWindSpeed), nullFloat(rec.AvgHumidity), rec.TotalRainfall, nullFloat(rec.Elevation),
		rec.CropType, rec.SoilType, rec.PlantationDate, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	return err
}

func (s *PredictionStore) Complete(ctx context.Context, id uuid.UUID, result irrigation.CalculationResult, at time.Time) (irrigation.PredictionRecord, bool, error) {
	next := sql.NullString{String: result.NextWaterDate, Valid: result.NextWaterDate != ""}
	res, err := s.db.ExecContext(ctx, `
		UPDATE water_predictions
		SET water_predicted = ?, water_predicted_per_area = ?, next_water_date = ?, water_frequency = ?,
			instruction = ?, updated_at = ?
		WHERE id = ?
	`, result.WaterPredicted, result.WaterPredictedPerArea, next, result.WaterFrequency, result.Instruction,
		formatTime(at), id.String())
	if err != nil {
		return irrigation.PredictionRecord{}, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return irrigation.PredictionRecord{}, false, err
	}
	if affected == 0 {
		return irrigation.PredictionRecord{}, false, nil
	}
	return s.Get(ctx, id)
}

func (s *PredictionStore) Get(ctx context.Context, id uuid.UUID) (irrigation.PredictionRecord, bool, error) {
	return scanPrediction(s.db.QueryRowContext(ctx, predictionColumns+` WHERE id = ?`, id.String()))
}

func (s *PredictionStore) Latest(ctx context.Context, loc weather.Location) (irrigation.PredictionRecord, bool, error) {
	return scanPrediction(s.db.QueryRowContext(ctx, predictionColumns+` WHERE location_key = ? ORDER BY seq DESC LIMIT 1`, loc.Key()))
}

func scanPrediction(row *sql.Row) (irrigation.PredictionRecord, bool, error) {
	var (
		rec                                   irrigation.PredictionRecord
		id, created, updated                  string
		maxT, minT, wind, humidity, elevation sql.NullFloat64
		water, perArea                        sql.NullFloat64
		next, instruction                     sql.NullString
		frequency                             sql.NullInt64
	)
	err := row.Scan(&id, &rec.Location.Lat, &rec.Location.Lon, &maxT, &minT, &wind, &humidity, &rec.TotalRainfall,
		&elevation, &rec.CropType, &rec.SoilType, &rec.PlantationDate, &water, &perArea, &next, &frequency,
		&instruction, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return irrigation.PredictionRecord{}, false, nil
	}
	if err != nil {
		return irrigation.PredictionRecord{}, false, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return irrigation.PredictionRecord{}, false, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return irrigation.PredictionRecord{}, false, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return irrigation.PredictionRecord{}, false, err
	}
	rec.MaxTemp = floatOrNil(maxT)
	rec.MinTemp = floatOrNil(minT)
	rec.AvgWindSpeed = floatOrNil(wind)
	rec.AvgHumidity = floatOrNil(humidity)
	rec.Elevation = floatOrNil(elevation)
	rec.WaterPredicted = floatOrNil(water)
	rec.WaterPredictedPerArea = floatOrNil(perArea)
	if next.Valid {
		rec.NextWaterDate = &next.String
	}
	if instruction.Valid {
		rec.Instruction = &instruction.String
	}
	if frequency.Valid {
		value := int(frequency.Int64)
		rec.WaterFrequency = &value
	}
	return rec, true, nil
}

var _ irrigation.Repository = (*PredictionStore)(nil)
