// Package sqlitestore keeps every farmcast table in one embedded SQLite file for
// single-node deployments.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_weather (
	location_key TEXT NOT NULL,
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	date TEXT NOT NULL,
	temperature REAL,
	humidity REAL,
	wind_speed REAL,
	rainfall REAL NOT NULL DEFAULT 0,
	min_temp REAL,
	max_temp REAL,
	PRIMARY KEY (location_key, date)
);
CREATE TABLE IF NOT EXISTS today_weather (
	location_key TEXT NOT NULL,
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	date TEXT NOT NULL,
	min_temp REAL NOT NULL,
	max_temp REAL NOT NULL,
	condition TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (location_key, date)
);
CREATE TABLE IF NOT EXISTS water_predictions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	location_key TEXT NOT NULL,
	lat REAL NOT NULL,
	lon REAL NOT NULL,
	max_temp REAL,
	min_temp REAL,
	avg_wind_speed REAL,
	avg_humidity REAL,
	total_rainfall REAL NOT NULL DEFAULT 0,
	elevation REAL,
	crop_type TEXT NOT NULL,
	soil_type TEXT NOT NULL,
	plantation_date TEXT NOT NULL,
	water_predicted REAL,
	water_predicted_per_area REAL,
	next_water_date TEXT,
	water_frequency INTEGER,
	instruction TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_water_predictions_location ON water_predictions(location_key, seq);
CREATE TABLE IF NOT EXISTS device_subscriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	player_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

// Open opens (or creates) the database at path and ensures the schema exists.
// ":memory:" yields a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatOrNil(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Float64
	return &value
}
