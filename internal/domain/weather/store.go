package weather

import (
	"context"
	"time"

	"github.com/yanqian/farmcast/pkg/util"
)

// AggregateKey addresses one daily aggregate or today summary.
type AggregateKey struct {
	Location Location
	Date     string
}

// KeyOf returns the upsert key of an aggregate.
func KeyOf(agg DailyAggregate) AggregateKey {
	return AggregateKey{Location: agg.Location, Date: agg.Date}
}

// Store persists aggregates. Upserts replace the previous row for the key entirely and
// must be atomic per key.
type Store interface {
	UpsertDailyAggregate(ctx context.Context, key AggregateKey, agg DailyAggregate) error
	UpsertTodaySummary(ctx context.Context, key AggregateKey, summary TodaySummary) error
	GetTodaySummary(ctx context.Context, key AggregateKey) (TodaySummary, bool, error)
	// ReadTrailingAggregates summarizes the aggregates of the windowDays calendar dates ending
	// with now's date. found is false when no row matches.
	ReadTrailingAggregates(ctx context.Context, loc Location, windowDays int, now time.Time) (TrailingAggregate, bool, error)
}

// ForecastProvider fetches the multi-day forecast for a location.
type ForecastProvider interface {
	FetchForecast(ctx context.Context, loc Location) (Forecast, error)
}

// Archive keeps raw provider payloads.
type Archive interface {
	Put(ctx context.Context, key string, payload []byte) error
}

// EventPublisher announces finished ingestion runs.
type EventPublisher interface {
	PublishIngest(ctx context.Context, event IngestEvent) error
}

// AlertLedger records sent alerts so repeat notifications can be suppressed within a cooldown.
type AlertLedger interface {
	// Claim reports true when no alert with key was claimed within ttl, and records this one.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops the claim on key so the next cycle may alert again.
	Release(ctx context.Context, key string) error
}

// TrailingWindow returns the inclusive date range read by ReadTrailingAggregates: windowDays
// calendar dates ending with now's date.
func TrailingWindow(windowDays int, now time.Time) (since, until string) {
	if windowDays < 1 {
		windowDays = 1
	}
	until = now.Format(util.DateLayout)
	since = now.AddDate(0, 0, -(windowDays - 1)).Format(util.DateLayout)
	return since, until
}

// SummarizeTrailing folds stored daily rows into a trailing aggregate. Nil fields are
// skipped by the min, max and average reductions.
func SummarizeTrailing(loc Location, rows []DailyAggregate) (TrailingAggregate, bool) {
	out := TrailingAggregate{Location: loc, Days: len(rows)}
	if len(rows) == 0 {
		return out, false
	}
	var windSum, humiditySum float64
	var windCount, humidityCount int
	for _, row := range rows {
		if row.MaxTemp != nil && (out.MaxTemp == nil || *row.MaxTemp > *out.MaxTemp) {
			out.MaxTemp = floatPtr(*row.MaxTemp)
		}
		if row.MinTemp != nil && (out.MinTemp == nil || *row.MinTemp < *out.MinTemp) {
			out.MinTemp = floatPtr(*row.MinTemp)
		}
		if row.WindSpeed != nil {
			windSum += *row.WindSpeed
			windCount++
		}
		if row.Humidity != nil {
			humiditySum += *row.Humidity
			humidityCount++
		}
		out.TotalRainfall += row.Rainfall
	}
	if windCount > 0 {
		out.AvgWindSpeed = floatPtr(windSum / float64(windCount))
	}
	if humidityCount > 0 {
		out.AvgHumidity = floatPtr(humiditySum / float64(humidityCount))
	}
	return out, true
}
