package weather

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testLoc = Location{Lat: 10, Lon: 20}

func TestReduce_GroupsByDateAndUsesMiddaySample(t *testing.T) {
	samples := []ForecastSample{
		sample(t, "2024-06-01 09:00:00", 30, 28, 31, rain(1.5), "Clouds"),
		sample(t, "2024-06-01 12:00:00", 34, 33, 36, nil, "Clear"),
		sample(t, "2024-06-01 15:00:00", 33, 25, 35, rain(2), ""),
		sample(t, "2024-06-02 00:00:00", 24, 22, 25, nil, "Rain"),
	}

	got, err := Reduce(testLoc, samples, "2024-06-01", ReducerConfig{})
	require.NoError(t, err)
	require.Len(t, got.Days, 2)

	day1 := got.Days[0]
	require.Equal(t, "2024-06-01", day1.Date)
	require.Equal(t, 34.0, *day1.Temperature)
	require.Equal(t, 60.0, *day1.Humidity)
	require.Equal(t, 3.5, *day1.WindSpeed)
	require.InDelta(t, 3.5, day1.Rainfall, 1e-9)
	require.Equal(t, 25.0, *day1.MinTemp)
	require.Equal(t, 36.0, *day1.MaxTemp)

	day2 := got.Days[1]
	require.Equal(t, "2024-06-02", day2.Date)
	require.Nil(t, day2.Temperature)
	require.Nil(t, day2.Humidity)
	require.Nil(t, day2.WindSpeed)
	require.Zero(t, day2.Rainfall)

	require.NotNil(t, got.Today)
	require.Equal(t, TodaySummary{Location: testLoc, Date: "2024-06-01", MinTemp: 25, MaxTemp: 36, Condition: "Clouds"}, *got.Today)
	require.Equal(t, 2.0, got.TodayRain3h)
	require.Equal(t, 34.0, *got.TodayMiddayTemp)
}

func TestReduce_KeepsFirstFiveDatesInInputOrder(t *testing.T) {
	var samples []ForecastSample
	dates := []string{"2024-06-03", "2024-06-01", "2024-06-02", "2024-06-05", "2024-06-04", "2024-06-06", "2024-06-07"}
	for _, date := range dates {
		samples = append(samples, sample(t, date+" 06:00:00", 20, 18, 22, nil, ""))
	}
	// a repeated early date must not count twice
	samples = append(samples, sample(t, "2024-06-03 21:00:00", 19, 17, 21, rain(4), ""))

	got, err := Reduce(testLoc, samples, "2024-06-03", ReducerConfig{})
	require.NoError(t, err)
	require.Len(t, got.Days, 5)
	var kept []string
	for _, day := range got.Days {
		kept = append(kept, day.Date)
	}
	require.Equal(t, dates[:5], kept)
	require.Equal(t, 4.0, got.Days[0].Rainfall)
	require.Equal(t, 17.0, *got.Days[0].MinTemp)
}

func TestReduce_WindowIsConfigurable(t *testing.T) {
	samples := []ForecastSample{
		sample(t, "2024-06-01 06:00:00", 20, 18, 22, nil, ""),
		sample(t, "2024-06-02 06:00:00", 20, 18, 22, nil, ""),
		sample(t, "2024-06-03 06:00:00", 20, 18, 22, nil, ""),
	}

	got, err := Reduce(testLoc, samples, "2024-06-01", ReducerConfig{WindowDays: 2})
	require.NoError(t, err)
	require.Len(t, got.Days, 2)
}

func TestReduce_RainfallSumsAndMinMaxHold(t *testing.T) {
	var samples []ForecastSample
	wantRain := 0.0
	for hour := 0; hour < 24; hour += 3 {
		var r *float64
		if hour%6 == 0 {
			v := float64(hour) / 4
			r = rain(v)
			wantRain += v
		}
		// provider occasionally reports min above max for a timepoint
		samples = append(samples, sample(t, fmt.Sprintf("2024-06-01 %02d:00:00", hour), 25, float64(30-hour/3), float64(20+hour/3), r, ""))
	}

	got, err := Reduce(testLoc, samples, "2024-06-01", ReducerConfig{})
	require.NoError(t, err)
	day := got.Days[0]
	require.InDelta(t, wantRain, day.Rainfall, 1e-9)
	require.GreaterOrEqual(t, day.Rainfall, 0.0)
	require.LessOrEqual(t, *day.MinTemp, *day.MaxTemp)
}

func TestReduce_NoTodayDataStillReturnsDays(t *testing.T) {
	samples := []ForecastSample{
		sample(t, "2024-06-02 12:00:00", 30, 28, 31, rain(3), "Rain"),
		sample(t, "2024-06-03 12:00:00", 31, 29, 32, nil, "Clear"),
	}

	got, err := Reduce(testLoc, samples, "2024-06-01", ReducerConfig{})
	require.True(t, errors.Is(err, ErrNoCurrentDayData))
	require.Nil(t, got.Today)
	require.Len(t, got.Days, 2)

	_, ok := got.AlertReading()
	require.False(t, ok)
}

func TestReduce_EmptyInput(t *testing.T) {
	got, err := Reduce(testLoc, nil, "2024-06-01", ReducerConfig{})
	require.ErrorIs(t, err, ErrNoCurrentDayData)
	require.Empty(t, got.Days)
}

func TestReduce_DatesFollowZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	samples := []ForecastSample{
		// 06:30 UTC is 12:00 in IST
		{Timestamp: time.Date(2024, 6, 1, 6, 30, 0, 0, time.UTC), Temperature: 41, TempMin: 38, TempMax: 39, Humidity: 20, WindSpeed: 2},
		// 20:00 UTC is already the next day in IST
		{Timestamp: time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC), Temperature: 30, TempMin: 29, TempMax: 31},
	}

	got, err := Reduce(testLoc, samples, "2024-06-01", ReducerConfig{Zone: ist})
	require.NoError(t, err)
	require.Len(t, got.Days, 2)
	require.Equal(t, 41.0, *got.Days[0].Temperature)
	require.Equal(t, "2024-06-02", got.Days[1].Date)

	reading, ok := got.AlertReading()
	require.True(t, ok)
	require.Equal(t, 41.0, reading.MaxTempC)
}

func sample(t *testing.T, ts string, temp, tempMin, tempMax float64, rain3h *float64, condition string) ForecastSample {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.UTC)
	require.NoError(t, err)
	return ForecastSample{
		Timestamp:   parsed,
		Temperature: temp,
		Humidity:    60,
		WindSpeed:   3.5,
		TempMin:     tempMin,
		TempMax:     tempMax,
		Rain3h:      rain3h,
		Condition:   condition,
	}
}

func rain(v float64) *float64 {
	return &v
}
