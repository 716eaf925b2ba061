package weather

import (
	"math"
	"time"

	apperrors "github.com/yanqian/farmcast/pkg/errors"
	"github.com/yanqian/farmcast/pkg/util"
)

// ErrNoCurrentDayData is returned by Reduce, alongside the daily aggregates, when no sample falls on today.
var ErrNoCurrentDayData = apperrors.Wrap(apperrors.CodeNoCurrentDayData, "forecast has no samples for the current day", nil)

const (
	defaultWindowDays  = 5
	defaultMiddayClock = "12:00:00"
)

// ReducerConfig controls how samples are bucketed into days.
type ReducerConfig struct {
	WindowDays  int
	MiddayClock string
	Zone        *time.Location
}

func (c ReducerConfig) normalized() ReducerConfig {
	if c.WindowDays <= 0 {
		c.WindowDays = defaultWindowDays
	}
	if c.MiddayClock == "" {
		c.MiddayClock = defaultMiddayClock
	}
	if c.Zone == nil {
		c.Zone = time.UTC
	}
	return c
}

// Reduction is the output of one reducer pass.
type Reduction struct {
	Days  []DailyAggregate
	Today *TodaySummary
	// TodayRain3h is the wettest single 3-hour bucket of today.
	TodayRain3h float64
	// TodayMiddayTemp is today's midday temperature, nil without a midday sample.
	TodayMiddayTemp *float64
}

// AlertReading derives the values the alert rules are evaluated against.
func (r Reduction) AlertReading() (AlertReading, bool) {
	if r.Today == nil {
		return AlertReading{}, false
	}
	maxTemp := r.Today.MaxTemp
	if r.TodayMiddayTemp != nil && *r.TodayMiddayTemp > maxTemp {
		maxTemp = *r.TodayMiddayTemp
	}
	return AlertReading{MaxTempC: maxTemp, Rain3hMm: r.TodayRain3h}, true
}

type dayBucket struct {
	agg       DailyAggregate
	condition string
	hasTemps  bool
	maxRain3h float64
}

// Reduce groups forecast samples by calendar date in cfg.Zone.
// Days keep first-seen order and are truncated to cfg.WindowDays. Today is summarized
// from all of today's samples even when today falls outside the stored window.
func Reduce(loc Location, samples []ForecastSample, today string, cfg ReducerConfig) (Reduction, error) {
	cfg = cfg.normalized()

	order := make([]string, 0, cfg.WindowDays+1)
	buckets := make(map[string]*dayBucket)
	var middayTemp *float64

	for _, sample := range samples {
		local := sample.Timestamp.In(cfg.Zone)
		date := local.Format(util.DateLayout)
		bucket, ok := buckets[date]
		if !ok {
			bucket = &dayBucket{agg: DailyAggregate{Location: loc, Date: date}}
			buckets[date] = bucket
			order = append(order, date)
		}

		lo := math.Min(sample.TempMin, sample.TempMax)
		hi := math.Max(sample.TempMin, sample.TempMax)
		if !bucket.hasTemps {
			bucket.agg.MinTemp = floatPtr(lo)
			bucket.agg.MaxTemp = floatPtr(hi)
			bucket.hasTemps = true
		} else {
			if lo < *bucket.agg.MinTemp {
				bucket.agg.MinTemp = floatPtr(lo)
			}
			if hi > *bucket.agg.MaxTemp {
				bucket.agg.MaxTemp = floatPtr(hi)
			}
		}

		if sample.Rain3h != nil && *sample.Rain3h > 0 {
			bucket.agg.Rainfall += *sample.Rain3h
			if *sample.Rain3h > bucket.maxRain3h {
				bucket.maxRain3h = *sample.Rain3h
			}
		}

		if bucket.condition == "" && sample.Condition != "" {
			bucket.condition = sample.Condition
		}

		if local.Format("15:04:05") == cfg.MiddayClock {
			bucket.agg.Temperature = floatPtr(sample.Temperature)
			bucket.agg.Humidity = floatPtr(sample.Humidity)
			bucket.agg.WindSpeed = floatPtr(sample.WindSpeed)
			if date == today {
				middayTemp = floatPtr(sample.Temperature)
			}
		}
	}

	result := Reduction{Days: make([]DailyAggregate, 0, min(len(order), cfg.WindowDays))}
	for i, date := range order {
		if i >= cfg.WindowDays {
			break
		}
		result.Days = append(result.Days, buckets[date].agg)
	}

	bucket, ok := buckets[today]
	if !ok || !bucket.hasTemps {
		return result, ErrNoCurrentDayData
	}
	result.Today = &TodaySummary{
		Location:  loc,
		Date:      today,
		MinTemp:   *bucket.agg.MinTemp,
		MaxTemp:   *bucket.agg.MaxTemp,
		Condition: bucket.condition,
	}
	result.TodayRain3h = bucket.maxRain3h
	result.TodayMiddayTemp = middayTemp
	return result, nil
}
