package weather

// AlertKind distinguishes the rule that fired.
type AlertKind string

const (
	AlertHeat AlertKind = "heat"
	AlertRain AlertKind = "rain"
)

const (
	heatAlertText = "High temperature alert! Please take necessary precautions."
	rainAlertText = "Heavy rainfall expected. Protect your crops accordingly."
)

// AlertRules holds the thresholds. A reading must exceed a threshold to fire.
type AlertRules struct {
	HeatThresholdC  float64
	RainThresholdMm float64
}

// DefaultAlertRules returns 40°C and 20mm per 3 hours.
func DefaultAlertRules() AlertRules {
	return AlertRules{HeatThresholdC: 40, RainThresholdMm: 20}
}

// AlertReading is the slice of today's data the rules look at.
type AlertReading struct {
	MaxTempC float64
	Rain3hMm float64
}

// AlertMessage is a fired alert.
type AlertMessage struct {
	Kind AlertKind `json:"kind"`
	Text string    `json:"text"`
}

// EvaluateAlert returns at most one alert. Heat takes priority over rain.
func EvaluateAlert(reading AlertReading, rules AlertRules) (AlertMessage, bool) {
	switch {
	case reading.MaxTempC > rules.HeatThresholdC:
		return AlertMessage{Kind: AlertHeat, Text: heatAlertText}, true
	case reading.Rain3hMm > rules.RainThresholdMm:
		return AlertMessage{Kind: AlertRain, Text: rainAlertText}, true
	default:
		return AlertMessage{}, false
	}
}
