package watercalc

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/pkg/util"
)

const (
	litersPerMMHectare = 10000
	hectaresPerAcre    = 2.47105
	defaultElevationM  = 150
	defaultFrequency   = 7
)

// Seasonal defaults used for days beyond the observed window.
var climateDefaults = DayWeather{TminC: 22, TmaxC: 36, WindSpeed: 2, RHMin: 45, RHMax: 75}

// Irrigation is one simulated watering event.
type Irrigation struct {
	Date     string
	AmountMM float64
	Stage    Stage
}

// Plan is the outcome of a season simulation.
type Plan struct {
	TotalMM     float64
	Irrigations []Irrigation
}

// Calculator is the in-process water requirement model.
type Calculator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewCalculator builds the formula calculator.
func NewCalculator(logger *slog.Logger) *Calculator {
	return &Calculator{logger: logger.With("component", "watercalc.formula"), now: time.Now}
}

// Calculate simulates the full season from the plantation date and summarizes it.
func (c *Calculator) Calculate(ctx context.Context, req irrigation.CalculationRequest) (irrigation.CalculationResult, error) {
	if err := ctx.Err(); err != nil {
		return irrigation.CalculationResult{}, err
	}
	planted, err := util.ParseDate(req.PlantationDate)
	if err != nil {
		return irrigation.CalculationResult{}, fmt.Errorf("parse plantation date: %w", err)
	}
	cropName, crop := resolveCrop(req.CropType)
	soilName, soil := resolveSoil(req.SoilType)
	if cropName != req.CropType || soilName != req.SoilType {
		c.logger.Info("unknown crop or soil, using fallback", "crop", req.CropType, "crop_used", cropName, "soil", req.SoilType, "soil_used", soilName)
	}

	elevation := float64(defaultElevationM)
	if req.Elevation != nil {
		elevation = *req.Elevation
	}
	plan := Simulate(crop, soil, planted, observedWeather(req), elevation, req.Location.Lat)

	perHectare := math.Round(plan.TotalMM * litersPerMMHectare)
	result := irrigation.CalculationResult{
		WaterPredicted:        perHectare,
		WaterPredictedPerArea: math.Round(perHectare / hectaresPerAcre),
		WaterFrequency:        frequency(plan.Irrigations),
	}
	if len(plan.Irrigations) > 0 {
		result.NextWaterDate = plan.Irrigations[0].Date
	}

	daysSincePlanting := int(c.now().UTC().Sub(planted).Hours() / 24)
	stage := crop.StageAt(max(daysSincePlanting, 0))
	result.Instruction = fmt.Sprintf("Water your %s every %d days. %s.", req.CropType, result.WaterFrequency, Guidance(req.CropType, stage))

	c.logger.Info("water requirement calculated", "prediction_id", req.ID, "liters_per_ha", perHectare, "irrigations", len(plan.Irrigations))
	return result, nil
}

func resolveCrop(name string) (string, Crop) {
	if crop, ok := crops[name]; ok {
		return name, crop
	}
	return fallbackCrop, crops[fallbackCrop]
}

func resolveSoil(name string) (string, Soil) {
	if soil, ok := soils[name]; ok {
		return name, soil
	}
	return fallbackSoil, soils[fallbackSoil]
}

// observedWeather turns the trailing aggregates into the first simulated day.
func observedWeather(req irrigation.CalculationRequest) []DayWeather {
	day := climateDefaults
	agg := req.Aggregates
	if agg.MinTemp != nil {
		day.TminC = *agg.MinTemp
	}
	if agg.MaxTemp != nil {
		day.TmaxC = *agg.MaxTemp
	}
	if agg.AvgWindSpeed != nil {
		day.WindSpeed = *agg.AvgWindSpeed
	}
	humidity := 60.0
	if agg.AvgHumidity != nil {
		humidity = *agg.AvgHumidity
	}
	day.RHMin = math.Max(humidity-15, 30)
	day.RHMax = math.Min(humidity+15, 90)
	return []DayWeather{day}
}

// Simulate runs a daily soil-water balance over the crop season. Observed days are used
// first, climate defaults afterwards. Irrigation refills the root zone whenever depletion
// passes the stage's critical fraction.
func Simulate(crop Crop, soil Soil, planted time.Time, observed []DayWeather, elevationM, latDeg float64) Plan {
	var plan Plan
	storage := soil.AvailableWaterMM(crop.RootDepthM[StageInitial])
	day := planted
	for i := 0; i < crop.SeasonDays(); i++ {
		stage := crop.StageAt(i)
		capacity := soil.AvailableWaterMM(crop.RootDepthM[stage])

		w := climateDefaults
		if i < len(observed) {
			w = observed[i]
		}
		w.ElevationM = elevationM
		w.LatDeg = latDeg
		w.DayOfYear = day.YearDay()

		etc := ReferenceET(w) * crop.Kc[stage]
		storage -= etc
		depletion := 1.0
		if capacity > 0 {
			depletion = 1 - storage/capacity
		}
		if depletion > crop.CriticalDepletion[stage] {
			plan.Irrigations = append(plan.Irrigations, Irrigation{
				Date:     day.Format(util.DateLayout),
				AmountMM: math.Round((capacity-storage)*10) / 10,
				Stage:    stage,
			})
			storage = capacity
		}
		plan.TotalMM += etc
		day = day.AddDate(0, 0, 1)
	}
	return plan
}

// frequency is the mean interval in days between irrigations, 7 for a single event and 0 for none.
func frequency(events []Irrigation) int {
	switch len(events) {
	case 0:
		return 0
	case 1:
		return defaultFrequency
	}
	first, err1 := util.ParseDate(events[0].Date)
	last, err2 := util.ParseDate(events[len(events)-1].Date)
	if err1 != nil || err2 != nil {
		return defaultFrequency
	}
	days := last.Sub(first).Hours() / 24
	return int(math.Round(days / float64(len(events)-1)))
}

var _ irrigation.Calculator = (*Calculator)(nil)
