package watercalc

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/weather"
)

func TestReferenceET_TropicalSummerDay(t *testing.T) {
	eto := ReferenceET(DayWeather{
		TminC: 24, TmaxC: 36, WindSpeed: 2, RHMin: 45, RHMax: 75,
		ElevationM: 150, LatDeg: 9.2, DayOfYear: 120,
	})

	require.Greater(t, eto, 3.0)
	require.Less(t, eto, 8.0)
}

func TestReferenceET_NeverNegative(t *testing.T) {
	eto := ReferenceET(DayWeather{
		TminC: -5, TmaxC: -1, WindSpeed: 0, RHMin: 90, RHMax: 100,
		ElevationM: 0, LatDeg: 80, DayOfYear: 355,
	})
	require.GreaterOrEqual(t, eto, 0.0)
}

func TestCropStageAt(t *testing.T) {
	rice := crops["Rice"]
	require.Equal(t, 150, rice.SeasonDays())
	require.Equal(t, StageInitial, rice.StageAt(0))
	require.Equal(t, StageDevelopment, rice.StageAt(30))
	require.Equal(t, StageMidSeason, rice.StageAt(60))
	require.Equal(t, StageLateSeason, rice.StageAt(149))
	require.Equal(t, StageLateSeason, rice.StageAt(400))
}

func TestSimulate_IrrigatesAndRefills(t *testing.T) {
	planted := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	plan := Simulate(crops["Rice"], soils["Red Soil"], planted, nil, 150, 9.2)

	require.Greater(t, plan.TotalMM, 0.0)
	require.NotEmpty(t, plan.Irrigations)
	require.True(t, strings.HasPrefix(plan.Irrigations[0].Date, "2024-05-"))
	for _, event := range plan.Irrigations {
		require.Greater(t, event.AmountMM, 0.0)
	}
}

func TestFrequency(t *testing.T) {
	require.Equal(t, 0, frequency(nil))
	require.Equal(t, 7, frequency([]Irrigation{{Date: "2024-05-03"}}))
	require.Equal(t, 3, frequency([]Irrigation{{Date: "2024-05-01"}, {Date: "2024-05-04"}, {Date: "2024-05-07"}}))
	require.Equal(t, 3, frequency([]Irrigation{{Date: "2024-05-01"}, {Date: "2024-05-03"}, {Date: "2024-05-06"}}))
}

func TestCalculator_ProducesResult(t *testing.T) {
	calc := NewCalculator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	calc.now = func() time.Time { return time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC) }
	maxTemp, minTemp, wind, humidity := 37.0, 25.0, 3.0, 55.0

	res, err := calc.Calculate(context.Background(), irrigation.CalculationRequest{
		ID:       uuid.New(),
		Location: weather.Location{Lat: 9.2, Lon: 77.2},
		Aggregates: weather.TrailingAggregate{
			MaxTemp: &maxTemp, MinTemp: &minTemp, AvgWindSpeed: &wind, AvgHumidity: &humidity,
		},
		CropType:       "Groundnut",
		SoilType:       "Black Clayey Soil",
		PlantationDate: "2024-05-01",
	})
	require.NoError(t, err)
	require.Greater(t, res.WaterPredicted, 0.0)
	require.InDelta(t, res.WaterPredicted/hectaresPerAcre, res.WaterPredictedPerArea, 1)
	require.NotEmpty(t, res.NextWaterDate)
	require.Positive(t, res.WaterFrequency)
	require.True(t, strings.HasPrefix(res.Instruction, "Water your Groundnut every "))
	require.Contains(t, res.Instruction, "Keep soil just moist to aid germination.")
}

func TestCalculator_UnknownCropAndSoilFallBack(t *testing.T) {
	calc := NewCalculator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	calc.now = func() time.Time { return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC) }

	res, err := calc.Calculate(context.Background(), irrigation.CalculationRequest{
		Location:       weather.Location{Lat: 12, Lon: 78},
		CropType:       "Millet",
		SoilType:       "Laterite",
		PlantationDate: "2024-05-01",
	})
	require.NoError(t, err)

	rice, err := calc.Calculate(context.Background(), irrigation.CalculationRequest{
		Location:       weather.Location{Lat: 12, Lon: 78},
		CropType:       "Rice",
		SoilType:       "Red Soil",
		PlantationDate: "2024-05-01",
	})
	require.NoError(t, err)
	require.Equal(t, rice.WaterPredicted, res.WaterPredicted)
	require.Equal(t, rice.NextWaterDate, res.NextWaterDate)
	// guidance falls back to the generic table for the requested name
	require.Contains(t, res.Instruction, "Water your Millet every ")
	require.Contains(t, res.Instruction, "Ensure soil is moist to the depth of your finger.")
}

func TestCalculator_RejectsBadDate(t *testing.T) {
	calc := NewCalculator(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := calc.Calculate(context.Background(), irrigation.CalculationRequest{CropType: "Rice", SoilType: "Red Soil", PlantationDate: "soon"})
	require.Error(t, err)
}
