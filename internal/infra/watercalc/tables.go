package watercalc

// Stage is a crop growth stage.
type Stage string

const (
	StageInitial     Stage = "initial"
	StageDevelopment Stage = "development"
	StageMidSeason   Stage = "mid_season"
	StageLateSeason  Stage = "late_season"
)

var stageOrder = []Stage{StageInitial, StageDevelopment, StageMidSeason, StageLateSeason}

// Crop holds the per-stage coefficients of one crop.
type Crop struct {
	Kc                map[Stage]float64
	StageDays         map[Stage]int
	RootDepthM        map[Stage]float64
	CriticalDepletion map[Stage]float64
}

// SeasonDays is the total length of the growing season.
func (c Crop) SeasonDays() int {
	total := 0
	for _, stage := range stageOrder {
		total += c.StageDays[stage]
	}
	return total
}

// StageAt returns the stage reached day days after planting.
func (c Crop) StageAt(day int) Stage {
	cumulative := 0
	for _, stage := range stageOrder {
		cumulative += c.StageDays[stage]
		if day < cumulative {
			return stage
		}
	}
	return StageLateSeason
}

// Soil holds moisture limits as volume percentages.
type Soil struct {
	FieldCapacity float64
	WiltingPoint  float64
}

// AvailableWaterMM is the plant-available water held over depthM of root zone.
func (s Soil) AvailableWaterMM(depthM float64) float64 {
	return (s.FieldCapacity - s.WiltingPoint) / 100 * depthM * 1000
}

const (
	fallbackCrop = "Rice"
	fallbackSoil = "Red Soil"
)

func stages(initial, development, mid, late float64) map[Stage]float64 {
	return map[Stage]float64{StageInitial: initial, StageDevelopment: development, StageMidSeason: mid, StageLateSeason: late}
}

func stageDays(initial, development, mid, late int) map[Stage]int {
	return map[Stage]int{StageInitial: initial, StageDevelopment: development, StageMidSeason: mid, StageLateSeason: late}
}

// FAO-56 style coefficients for the supported crops.
var crops = map[string]Crop{
	"Rice": {
		Kc:                stages(1.05, 1.20, 1.20, 0.90),
		StageDays:         stageDays(30, 30, 60, 30),
		RootDepthM:        stages(0.30, 0.40, 0.50, 0.50),
		CriticalDepletion: stages(0.20, 0.20, 0.20, 0.20),
	},
	"Sugarcane": {
		Kc:                stages(0.40, 0.75, 1.25, 0.75),
		StageDays:         stageDays(35, 60, 190, 120),
		RootDepthM:        stages(0.40, 0.80, 1.20, 1.20),
		CriticalDepletion: stages(0.50, 0.65, 0.65, 0.65),
	},
	"Groundnut": {
		Kc:                stages(0.40, 0.75, 1.15, 0.60),
		StageDays:         stageDays(25, 35, 45, 25),
		RootDepthM:        stages(0.30, 0.50, 0.80, 0.80),
		CriticalDepletion: stages(0.40, 0.50, 0.50, 0.50),
	},
	"Cotton": {
		Kc:                stages(0.35, 0.75, 1.20, 0.70),
		StageDays:         stageDays(30, 50, 60, 55),
		RootDepthM:        stages(0.30, 0.70, 1.20, 1.20),
		CriticalDepletion: stages(0.50, 0.65, 0.65, 0.65),
	},
	"Banana": {
		Kc:                stages(0.50, 0.80, 1.10, 1.00),
		StageDays:         stageDays(120, 90, 120, 60),
		RootDepthM:        stages(0.30, 0.50, 0.80, 0.80),
		CriticalDepletion: stages(0.35, 0.35, 0.35, 0.35),
	},
}

var soils = map[string]Soil{
	"Red Soil":          {FieldCapacity: 22, WiltingPoint: 10},
	"Black Clayey Soil": {FieldCapacity: 42, WiltingPoint: 22},
	"Brown Soil":        {FieldCapacity: 30, WiltingPoint: 14},
	"Alluvial Soil":     {FieldCapacity: 32, WiltingPoint: 15},
}

var guidance = map[string]map[Stage]string{
	"Rice": {
		StageInitial:     "Keep soil moist but not flooded",
		StageDevelopment: "Maintain water level at 1-2 cm (about one finger joint)",
		StageMidSeason:   "Maintain water level at 5-7 cm (up to your middle finger joint)",
		StageLateSeason:  "Reduce water to 2-3 cm depth as the crop approaches maturity",
	},
	"Sugarcane": {
		StageInitial:     "Keep soil moist to support germination",
		StageDevelopment: "Water to a depth of 3-4 cm when soil appears dry",
		StageMidSeason:   "Ensure soil is moist to a depth of your finger length",
		StageLateSeason:  "Reduce watering as the cane matures and sweetens",
	},
	"Groundnut": {
		StageInitial:     "Keep soil just moist to aid germination",
		StageDevelopment: "Water to moisten soil to a depth of 5 cm (first finger joint)",
		StageMidSeason:   "Ensure soil is moist but not waterlogged during flowering",
		StageLateSeason:  "Reduce watering as pods mature (allows pods to develop fully)",
	},
	"Cotton": {
		StageInitial:     "Maintain soil moisture for seedling establishment",
		StageDevelopment: "Water to a depth of your first finger joint when soil surface dries",
		StageMidSeason:   "Ensure consistent moisture during boll formation",
		StageLateSeason:  "Reduce irrigation as bolls open to prevent rotting",
	},
	"Banana": {
		StageInitial:     "Keep soil continuously moist but not waterlogged",
		StageDevelopment: "Ensure soil is moist to the depth of your hand",
		StageMidSeason:   "Maintain consistent moisture during fruit development",
		StageLateSeason:  "Continue regular watering until harvesting",
	},
}

var defaultGuidance = map[Stage]string{
	StageInitial:     "Keep soil moist to support germination",
	StageDevelopment: "Water to a depth of your first finger joint",
	StageMidSeason:   "Ensure soil is moist to the depth of your finger",
	StageLateSeason:  "Reduce watering as the crop approaches maturity",
}

// Guidance returns farmer-facing watering advice for crop at stage.
func Guidance(crop string, stage Stage) string {
	table, ok := guidance[crop]
	if !ok {
		table = defaultGuidance
	}
	if text, ok := table[stage]; ok {
		return text
	}
	return "Water as needed based on soil moisture"
}
