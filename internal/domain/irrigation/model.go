package irrigation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/farmcast/internal/domain/weather"
	apperrors "github.com/yanqian/farmcast/pkg/errors"
	"github.com/yanqian/farmcast/pkg/util"
)

// PredictionRequest asks for a water recommendation for one field.
type PredictionRequest struct {
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	CropType       string   `json:"cropType"`
	SoilType       string   `json:"soilType"`
	PlantationDate string   `json:"plantationDate"`
}

// Validate normalizes the request and returns its location.
func (r PredictionRequest) Validate() (PredictionRequest, weather.Location, error) {
	if r.Lat == nil || r.Lon == nil {
		return r, weather.Location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and lon are required", nil)
	}
	loc := weather.Location{Lat: *r.Lat, Lon: *r.Lon}
	if err := loc.Validate(); err != nil {
		return r, weather.Location{}, err
	}
	r.CropType = strings.TrimSpace(r.CropType)
	r.SoilType = strings.TrimSpace(r.SoilType)
	r.PlantationDate = strings.TrimSpace(r.PlantationDate)
	if r.CropType == "" {
		return r, weather.Location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "cropType is required", nil)
	}
	if r.SoilType == "" {
		return r, weather.Location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "soilType is required", nil)
	}
	if _, err := util.ParseDate(r.PlantationDate); err != nil {
		return r, weather.Location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "plantationDate must be formatted as YYYY-MM-DD", err)
	}
	return r, loc, nil
}

// PredictionRecord is one prediction cycle. Prediction fields stay nil until the calculation completes.
type PredictionRecord struct {
	ID             uuid.UUID        `json:"id"`
	Location       weather.Location `json:"location"`
	MaxTemp        *float64         `json:"maxTemp"`
	MinTemp        *float64         `json:"minTemp"`
	AvgWindSpeed   *float64         `json:"avgWindSpeed"`
	AvgHumidity    *float64         `json:"avgHumidity"`
	TotalRainfall  float64          `json:"totalRainfall"`
	Elevation      *float64         `json:"elevation"`
	CropType       string           `json:"cropType"`
	SoilType       string           `json:"soilType"`
	PlantationDate string           `json:"plantationDate"`

	WaterPredicted        *float64 `json:"waterPredicted"`
	WaterPredictedPerArea *float64 `json:"waterPredictedPerArea"`
	NextWaterDate         *string  `json:"nextWaterDate"`
	WaterFrequency        *int     `json:"waterFrequency"`
	Instruction           *string  `json:"instruction"`

	// CalculationFailed is set on the returned record only, it is never persisted.
	CalculationFailed bool      `json:"calculationFailed"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Completed reports whether the calculation fields have been filled.
func (r PredictionRecord) Completed() bool {
	return r.WaterPredicted != nil
}

// Aggregates returns the weather inputs the record was created from.
func (r PredictionRecord) Aggregates() weather.TrailingAggregate {
	return weather.TrailingAggregate{
		Location:      r.Location,
		MaxTemp:       r.MaxTemp,
		MinTemp:       r.MinTemp,
		AvgWindSpeed:  r.AvgWindSpeed,
		AvgHumidity:   r.AvgHumidity,
		TotalRainfall: r.TotalRainfall,
	}
}

// CalculationRequest is handed to the water calculator.
type CalculationRequest struct {
	ID             uuid.UUID                 `json:"id"`
	Location       weather.Location          `json:"location"`
	Aggregates     weather.TrailingAggregate `json:"aggregates"`
	Elevation      *float64                  `json:"elevation"`
	CropType       string                    `json:"cropType"`
	SoilType       string                    `json:"soilType"`
	PlantationDate string                    `json:"plantationDate"`
}

// CalculationResult fills the prediction fields of a record. An empty NextWaterDate means
// no irrigation is due within the simulated horizon.
type CalculationResult struct {
	WaterPredicted        float64 `json:"waterPredicted"`
	WaterPredictedPerArea float64 `json:"waterPredictedPerArea"`
	NextWaterDate         string  `json:"nextWaterDate"`
	WaterFrequency        int     `json:"waterFrequency"`
	Instruction           string  `json:"instruction"`
}

// CompletionRequest is posted by out-of-process calculators.
type CompletionRequest struct {
	WaterPredicted        *float64 `json:"waterPredicted"`
	WaterPredictedPerArea *float64 `json:"waterPredictedPerArea"`
	NextWaterDate         *string  `json:"nextWaterDate"`
	WaterFrequency        *int     `json:"waterFrequency"`
	Instruction           *string  `json:"instruction"`
}

// Result validates the payload. All five fields must be present.
func (r CompletionRequest) Result() (CalculationResult, error) {
	if r.WaterPredicted == nil || r.WaterPredictedPerArea == nil || r.NextWaterDate == nil || r.WaterFrequency == nil || r.Instruction == nil {
		return CalculationResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "waterPredicted, waterPredictedPerArea, nextWaterDate, waterFrequency and instruction are required", nil)
	}
	if *r.WaterPredicted < 0 || *r.WaterPredictedPerArea < 0 || *r.WaterFrequency < 0 {
		return CalculationResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "prediction values cannot be negative", nil)
	}
	next := strings.TrimSpace(*r.NextWaterDate)
	if next != "" {
		if _, err := util.ParseDate(next); err != nil {
			return CalculationResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "nextWaterDate must be formatted as YYYY-MM-DD", err)
		}
	}
	return CalculationResult{
		WaterPredicted:        *r.WaterPredicted,
		WaterPredictedPerArea: *r.WaterPredictedPerArea,
		NextWaterDate:         next,
		WaterFrequency:        *r.WaterFrequency,
		Instruction:           strings.TrimSpace(*r.Instruction),
	}, nil
}

// Apply copies result into the prediction fields.
func (r *PredictionRecord) Apply(result CalculationResult, at time.Time) {
	water := result.WaterPredicted
	perArea := result.WaterPredictedPerArea
	freq := result.WaterFrequency
	instruction := result.Instruction
	r.WaterPredicted = &water
	r.WaterPredictedPerArea = &perArea
	r.WaterFrequency = &freq
	r.Instruction = &instruction
	r.NextWaterDate = nil
	if result.NextWaterDate != "" {
		next := result.NextWaterDate
		r.NextWaterDate = &next
	}
	r.UpdatedAt = at
}
