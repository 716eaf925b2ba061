package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

// WeatherStore implements weather.Store on SQLite.
type WeatherStore struct {
	db *sql.DB
}

// NewWeatherStore wraps an opened database.
func NewWeatherStore(db *sql.DB) *WeatherStore {
	return &WeatherStore{db: db}
}

func (s *WeatherStore) UpsertDailyAggregate(ctx context.Context, key weather.AggregateKey, agg weather.DailyAggregate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_weather (location_key, lat, lon, date, temperature, humidity, wind_speed, rainfall, min_temp, max_temp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_key, date) DO UPDATE SET
			temperature = excluded.temperature,
			humidity = excluded.humidity,
			wind_speed = excluded.wind_speed,
			rainfall = excluded.rainfall,
			min_temp = excluded.min_temp,
			max_temp = excluded.max_temp
	`, key.Location.Key(), key.Location.Lat, key.Location.Lon, key.Date,
		nullFloat(agg.Temperature), nullFloat(agg.Humidity), nullFloat(agg.WindSpeed), agg.Rainfall,
		nullFloat(agg.MinTemp), nullFloat(agg.MaxTemp))
	return err
}

func (s *WeatherStore) UpsertTodaySummary(ctx context.Context, key weather.AggregateKey, summary weather.TodaySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO today_weather (location_key, lat, lon, date, min_temp, max_temp, condition)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_key, date) DO UPDATE SET
			min_temp = excluded.min_temp,
			max_temp = excluded.max_temp,
			condition = excluded.condition
	`, key.Location.Key(), key.Location.Lat, key.Location.Lon, key.Date, summary.MinTemp, summary.MaxTemp, summary.Condition)
	return err
}

func (s *WeatherStore) GetTodaySummary(ctx context.Context, key weather.AggregateKey) (weather.TodaySummary, bool, error) {
	summary := weather.TodaySummary{Location: key.Location, Date: key.Date}
	err := s.db.QueryRowContext(ctx, `
		SELECT min_temp, max_temp, condition FROM today_weather WHERE location_key = ? AND date = ?
	`, key.Location.Key(), key.Date).Scan(&summary.MinTemp, &summary.MaxTemp, &summary.Condition)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.TodaySummary{}, false, nil
	}
	if err != nil {
		return weather.TodaySummary{}, false, err
	}
	return summary, true, nil
}

func (s *WeatherStore) ReadTrailingAggregates(ctx context.Context, loc weather.Location, windowDays int, now time.Time) (weather.TrailingAggregate, bool, error) {
	since, until := weather.TrailingWindow(windowDays, now)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, temperature, humidity, wind_speed, rainfall, min_temp, max_temp
		FROM daily_weather
		WHERE location_key = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, loc.Key(), since, until)
	if err != nil {
		return weather.TrailingAggregate{}, false, err
	}
	defer rows.Close()

	var daily []weather.DailyAggregate
	for rows.Next() {
		agg := weather.DailyAggregate{Location: loc}
		var temperature, humidity, wind, minT, maxT sql.NullFloat64
		if err := rows.Scan(&agg.Date, &temperature, &humidity, &wind, &agg.Rainfall, &minT, &maxT); err != nil {
			return weather.TrailingAggregate{}, false, err
		}
		agg.Temperature = floatOrNil(temperature)
		agg.Humidity = floatOrNil(humidity)
		agg.WindSpeed = floatOrNil(wind)
		agg.MinTemp = floatOrNil(minT)
		agg.MaxTemp = floatOrNil(maxT)
		daily = append(daily, agg)
	}
	if err := rows.Err(); err != nil {
		return weather.TrailingAggregate{}, false, err
	}
	out, found := weather.SummarizeTrailing(loc, daily)
	return out, found, nil
}

var _ weather.Store = (*WeatherStore)(nil)
