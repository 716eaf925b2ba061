package weather

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/yanqian/farmcast/pkg/errors"
)

// Location identifies a farm by coordinates.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key renders the location as a stable storage key.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "lat and lon must be numbers", nil)
	}
	if l.Lat < -90 || l.Lat > 90 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "lat must be between -90 and 90", nil)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "lon must be between -180 and 180", nil)
	}
	return nil
}

// ForecastSample is one 3-hourly forecast entry.
type ForecastSample struct {
	Timestamp   time.Time
	Temperature float64
	Humidity    float64
	WindSpeed   float64
	TempMin     float64
	TempMax     float64
	// Rain3h is the accumulated rainfall over the 3-hour bucket, nil when the provider omits it.
	Rain3h    *float64
	Condition string
}

// Forecast is the decoded provider payload plus the raw body for archival.
type Forecast struct {
	Location Location
	Samples  []ForecastSample
	Raw      []byte
}

// DailyAggregate summarizes one calendar date for one location.
type DailyAggregate struct {
	Location Location `json:"location"`
	Date     string   `json:"date"`
	// Temperature, Humidity and WindSpeed come from the midday sample and stay nil without one.
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	WindSpeed   *float64 `json:"windSpeed"`
	Rainfall    float64  `json:"rainfall"`
	MinTemp     *float64 `json:"minTemp"`
	MaxTemp     *float64 `json:"maxTemp"`
}

// TodaySummary is the current-day snapshot shown to farmers.
type TodaySummary struct {
	Location  Location `json:"location"`
	Date      string   `json:"date"`
	MinTemp   float64  `json:"minTemp"`
	MaxTemp   float64  `json:"maxTemp"`
	Condition string   `json:"condition"`
}

// TrailingAggregate is computed over the stored daily aggregates of one location.
type TrailingAggregate struct {
	Location      Location `json:"location"`
	Days          int      `json:"days"`
	MaxTemp       *float64 `json:"maxTemp"`
	MinTemp       *float64 `json:"minTemp"`
	AvgWindSpeed  *float64 `json:"avgWindSpeed"`
	AvgHumidity   *float64 `json:"avgHumidity"`
	TotalRainfall float64  `json:"totalRainfall"`
}

func floatPtr(v float64) *float64 {
	return &v
}
