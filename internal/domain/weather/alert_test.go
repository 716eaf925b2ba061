package weather

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateAlert(t *testing.T) {
	tests := []struct {
		name     string
		reading  AlertReading
		wantKind AlertKind
		wantFire bool
	}{
		{name: "heat only", reading: AlertReading{MaxTempC: 41, Rain3hMm: 0}, wantKind: AlertHeat, wantFire: true},
		{name: "rain only", reading: AlertReading{MaxTempC: 30, Rain3hMm: 25}, wantKind: AlertRain, wantFire: true},
		{name: "heat wins over rain", reading: AlertReading{MaxTempC: 41, Rain3hMm: 25}, wantKind: AlertHeat, wantFire: true},
		{name: "calm day", reading: AlertReading{MaxTempC: 20, Rain3hMm: 5}},
		{name: "threshold is exclusive", reading: AlertReading{MaxTempC: 40, Rain3hMm: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, fired := EvaluateAlert(tt.reading, DefaultAlertRules())
			require.Equal(t, tt.wantFire, fired)
			if !tt.wantFire {
				require.Equal(t, AlertMessage{}, msg)
				return
			}
			require.Equal(t, tt.wantKind, msg.Kind)
			require.NotEmpty(t, msg.Text)
		})
	}
}

func TestEvaluateAlert_CustomRules(t *testing.T) {
	msg, fired := EvaluateAlert(AlertReading{MaxTempC: 36}, AlertRules{HeatThresholdC: 35, RainThresholdMm: 10})
	require.True(t, fired)
	require.Equal(t, heatAlertText, msg.Text)
}
