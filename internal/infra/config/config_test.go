package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 5, cfg.Forecast.WindowDays)
	require.Equal(t, "12:00:00", cfg.Forecast.MiddayTime)
	require.Equal(t, 40.0, cfg.Alerts.HeatThresholdC)
	require.Equal(t, 20.0, cfg.Alerts.RainThresholdMm)
	require.Zero(t, cfg.Alerts.Cooldown)
	require.Equal(t, time.UTC, cfg.Zone())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: sqlite
  sqlite:
    path: /tmp/farmcast-test.db
forecast:
  windowDays: 3
  timezone: Asia/Kolkata
alerts:
  heatThresholdC: 38
scheduler:
  enabled: true
  interval: 1h
  locations:
    - lat: 10
      lon: 20
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("ALERT_HEAT_THRESHOLD_C", "42.5")
	t.Setenv("ALERT_COOLDOWN", "6h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Storage.Driver)
	require.Equal(t, 3, cfg.Forecast.WindowDays)
	require.Equal(t, 42.5, cfg.Alerts.HeatThresholdC)
	require.Equal(t, 6*time.Hour, cfg.Alerts.Cooldown)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
	require.Equal(t, []LocationConfig{{Lat: 10, Lon: 20}}, cfg.Scheduler.Locations)
	require.Equal(t, "Asia/Kolkata", cfg.Zone().String())
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver":       func(c *Config) { c.Storage.Driver = "mongo" },
		"postgres without dsn": func(c *Config) { c.Storage.Driver = DriverPostgres },
		"bad midday":           func(c *Config) { c.Forecast.MiddayTime = "noon" },
		"bad timezone":         func(c *Config) { c.Forecast.Timezone = "Mars/Olympus" },
		"zero window":          func(c *Config) { c.Forecast.WindowDays = 0 },
		"unknown calculator":   func(c *Config) { c.Prediction.Calculator = "ml" },
		"events without topic": func(c *Config) { c.Events.Enabled = true; c.Events.Topic = "" },
		"valkey without addr":  func(c *Config) { c.Valkey.Enabled = true },
		"unknown log format":   func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
