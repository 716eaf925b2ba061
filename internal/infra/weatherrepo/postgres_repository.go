package weatherrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_weather (
	location_key TEXT NOT NULL,
	lat DOUBLE PRECISION NOT NULL,
	lon DOUBLE PRECISION NOT NULL,
	date TEXT NOT NULL,
	temperature DOUBLE PRECISION,
	humidity DOUBLE PRECISION,
	wind_speed DOUBLE PRECISION,
	rainfall DOUBLE PRECISION NOT NULL DEFAULT 0,
	min_temp DOUBLE PRECISION,
	max_temp DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (location_key, date)
);
CREATE TABLE IF NOT EXISTS today_weather (
	location_key TEXT NOT NULL,
	lat DOUBLE PRECISION NOT NULL,
	lon DOUBLE PRECISION NOT NULL,
	date TEXT NOT NULL,
	min_temp DOUBLE PRECISION NOT NULL,
	max_temp DOUBLE PRECISION NOT NULL,
	condition TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (location_key, date)
);
`

// PostgresRepository persists aggregates in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the weather tables when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// UpsertDailyAggregate inserts or fully replaces the row for key.
func (r *PostgresRepository) UpsertDailyAggregate(ctx context.Context, key weather.AggregateKey, agg weather.DailyAggregate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_weather (location_key, lat, lon, date, temperature, humidity, wind_speed, rainfall, min_temp, max_temp, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (location_key, date) DO UPDATE SET
			temperature = EXCLUDED.temperature,
			humidity = EXCLUDED.humidity,
			wind_speed = EXCLUDED.wind_speed,
			rainfall = EXCLUDED.rainfall,
			min_temp = EXCLUDED.min_temp,
			max_temp = EXCLUDED.max_temp,
			updated_at = NOW()
	`, key.Location.Key(), key.Location.Lat, key.Location.Lon, key.Date,
		agg.Temperature, agg.Humidity, agg.WindSpeed, agg.Rainfall, agg.MinTemp, agg.MaxTemp)
	return err
}

// UpsertTodaySummary inserts or fully replaces the summary for key.
func (r *PostgresRepository) UpsertTodaySummary(ctx context.Context, key weather.AggregateKey, summary weather.TodaySummary) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO today_weather (location_key, lat, lon, date, min_temp, max_temp, condition, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (location_key, date) DO UPDATE SET
			min_temp = EXCLUDED.min_temp,
			max_temp = EXCLUDED.max_temp,
			condition = EXCLUDED.condition,
			updated_at = NOW()
	`, key.Location.Key(), key.Location.Lat, key.Location.Lon, key.Date, summary.MinTemp, summary.MaxTemp, summary.Condition)
	return err
}

// GetTodaySummary fetches the summary for key.
func (r *PostgresRepository) GetTodaySummary(ctx context.Context, key weather.AggregateKey) (weather.TodaySummary, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT min_temp, max_temp, condition
		FROM today_weather
		WHERE location_key = $1 AND date = $2
	`, key.Location.Key(), key.Date)
	summary := weather.TodaySummary{Location: key.Location, Date: key.Date}
	if err := row.Scan(&summary.MinTemp, &summary.MaxTemp, &summary.Condition); err != nil {
		if err == pgx.ErrNoRows {
			return weather.TodaySummary{}, false, nil
		}
		return weather.TodaySummary{}, false, err
	}
	return summary, true, nil
}

// ReadTrailingAggregates reduces the window in SQL. AVG, MIN and MAX ignore NULL columns.
func (r *PostgresRepository) ReadTrailingAggregates(ctx context.Context, loc weather.Location, windowDays int, now time.Time) (weather.TrailingAggregate, bool, error) {
	since, until := weather.TrailingWindow(windowDays, now)
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(max_temp), MIN(min_temp), AVG(wind_speed), AVG(humidity), COALESCE(SUM(rainfall), 0)
		FROM daily_weather
		WHERE location_key = $1 AND date >= $2 AND date <= $3
	`, loc.Key(), since, until)
	out := weather.TrailingAggregate{Location: loc}
	var days int64
	if err := row.Scan(&days, &out.MaxTemp, &out.MinTemp, &out.AvgWindSpeed, &out.AvgHumidity, &out.TotalRainfall); err != nil {
		return weather.TrailingAggregate{}, false, err
	}
	out.Days = int(days)
	return out, days > 0, nil
}

var _ weather.Store = (*PostgresRepository)(nil)
