package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	HTTP          HTTPConfig         `yaml:"http"`
	Storage       StorageConfig      `yaml:"storage"`
	Valkey        ValkeyConfig       `yaml:"valkey"`
	Forecast      ForecastConfig     `yaml:"forecast"`
	Alerts        AlertsConfig       `yaml:"alerts"`
	Notifications NotificationConfig `yaml:"notifications"`
	Elevation     ElevationConfig    `yaml:"elevation"`
	Prediction    PredictionConfig   `yaml:"prediction"`
	Archive       ArchiveConfig      `yaml:"archive"`
	Events        EventsConfig       `yaml:"events"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig selects the slog handler. Format is "json" or "text".
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	Retry        RetryConfig     `yaml:"retry"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort replays of requests that fail with a 5xx. Which
// routes may be replayed is decided by the router.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StorageConfig selects the persistence backend shared by every repository.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SQLiteConfig points at the embedded database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ValkeyConfig contains connection information for the cooldown ledger and job queue.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ClientConfig is shared by outbound HTTP providers.
type ClientConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"maxRetries"`
	InitialInterval time.Duration `yaml:"initialInterval"`
	MaxInterval     time.Duration `yaml:"maxInterval"`
}

// ForecastConfig controls the OpenWeather provider and the daily reduction.
type ForecastConfig struct {
	BaseURL    string       `yaml:"baseUrl"`
	APIKey     string       `yaml:"apiKey"`
	Client     ClientConfig `yaml:"client"`
	WindowDays int          `yaml:"windowDays"`
	MiddayTime string       `yaml:"middayTime"`
	Timezone   string       `yaml:"timezone"`
}

// AlertsConfig holds alert thresholds.
type AlertsConfig struct {
	HeatThresholdC  float64       `yaml:"heatThresholdC"`
	RainThresholdMm float64       `yaml:"rainThresholdMm"`
	Cooldown        time.Duration `yaml:"cooldown"`
}

// NotificationConfig holds OneSignal credentials and fanout tuning.
type NotificationConfig struct {
	BaseURL     string       `yaml:"baseUrl"`
	AppID       string       `yaml:"appId"`
	APIKey      string       `yaml:"apiKey"`
	SMSEnabled  bool         `yaml:"smsEnabled"`
	SMSFrom     string       `yaml:"smsFrom"`
	BatchSize   int          `yaml:"batchSize"`
	Concurrency int          `yaml:"concurrency"`
	Client      ClientConfig `yaml:"client"`
}

// ElevationConfig controls the elevation lookup.
type ElevationConfig struct {
	Enabled bool         `yaml:"enabled"`
	BaseURL string       `yaml:"baseUrl"`
	Client  ClientConfig `yaml:"client"`
}

// Calculator modes.
const (
	CalculatorFormula = "formula"
	CalculatorQueue   = "queue"
)

// PredictionConfig controls water predictions.
type PredictionConfig struct {
	TrailingDays       int           `yaml:"trailingDays"`
	CalculationTimeout time.Duration `yaml:"calculationTimeout"`
	PollInterval       time.Duration `yaml:"pollInterval"`
	Calculator         string        `yaml:"calculator"`
	QueueKey           string        `yaml:"queueKey"`
}

// ArchiveConfig addresses the raw payload bucket.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// EventsConfig controls the Kafka publisher.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LocationConfig is one scheduled farm.
type LocationConfig struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// SchedulerConfig drives periodic ingestion.
type SchedulerConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Interval    time.Duration    `yaml:"interval"`
	Concurrency int              `yaml:"concurrency"`
	Locations   []LocationConfig `yaml:"locations"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Address = ":" + v
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}

	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}

	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		cfg.Forecast.APIKey = v
	}
	if v := os.Getenv("WEATHER_BASE_URL"); v != "" {
		cfg.Forecast.BaseURL = v
	}
	if v := os.Getenv("FORECAST_WINDOW_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.WindowDays = parsed
		}
	}
	if v := os.Getenv("FORECAST_MIDDAY_TIME"); v != "" {
		cfg.Forecast.MiddayTime = v
	}
	if v := os.Getenv("FORECAST_TIMEZONE"); v != "" {
		cfg.Forecast.Timezone = v
	}

	if v := os.Getenv("ALERT_HEAT_THRESHOLD_C"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Alerts.HeatThresholdC = parsed
		}
	}
	if v := os.Getenv("ALERT_RAIN_THRESHOLD_MM"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Alerts.RainThresholdMm = parsed
		}
	}
	if v := os.Getenv("ALERT_COOLDOWN"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Alerts.Cooldown = parsed
		}
	}

	if v := os.Getenv("ONESIGNAL_APP_ID"); v != "" {
		cfg.Notifications.AppID = v
	}
	if v := os.Getenv("ONESIGNAL_API_KEY"); v != "" {
		cfg.Notifications.APIKey = v
	}
	if v := os.Getenv("ONESIGNAL_SMS_ENABLED"); v != "" {
		cfg.Notifications.SMSEnabled = parseBool(v)
	}
	if v := os.Getenv("ONESIGNAL_SMS_FROM"); v != "" {
		cfg.Notifications.SMSFrom = v
	}

	if v := os.Getenv("ELEVATION_ENABLED"); v != "" {
		cfg.Elevation.Enabled = parseBool(v)
	}
	if v := os.Getenv("ELEVATION_BASE_URL"); v != "" {
		cfg.Elevation.BaseURL = v
	}

	if v := os.Getenv("PREDICTION_TRAILING_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Prediction.TrailingDays = parsed
		}
	}
	if v := os.Getenv("PREDICTION_CALCULATION_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Prediction.CalculationTimeout = parsed
		}
	}
	if v := os.Getenv("PREDICTION_CALCULATOR"); v != "" {
		cfg.Prediction.Calculator = strings.ToLower(v)
	}

	if v := os.Getenv("ARCHIVE_ENABLED"); v != "" {
		cfg.Archive.Enabled = parseBool(v)
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}

	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		cfg.Events.Enabled = parseBool(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Events.Topic = v
	}

	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		cfg.Scheduler.Enabled = parseBool(v)
	}
	if v := os.Getenv("SCHEDULER_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Scheduler.Interval = parsed
		}
	}
}

func defaultClient() ClientConfig {
	return ClientConfig{
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 45 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
			},
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			SQLite: SQLiteConfig{Path: "data/farmcast.db"},
		},
		Forecast: ForecastConfig{
			BaseURL:    "https://api.openweathermap.org",
			Client:     defaultClient(),
			WindowDays: 5,
			MiddayTime: "12:00:00",
			Timezone:   "UTC",
		},
		Alerts: AlertsConfig{
			HeatThresholdC:  40,
			RainThresholdMm: 20,
		},
		Notifications: NotificationConfig{
			BaseURL:     "https://onesignal.com",
			BatchSize:   2000,
			Concurrency: 4,
			Client:      defaultClient(),
		},
		Elevation: ElevationConfig{
			Enabled: true,
			BaseURL: "https://api.open-elevation.com",
			Client:  defaultClient(),
		},
		Prediction: PredictionConfig{
			TrailingDays:       5,
			CalculationTimeout: 30 * time.Second,
			PollInterval:       500 * time.Millisecond,
			Calculator:         CalculatorFormula,
			QueueKey:           "farmcast:calculations",
		},
		Events: EventsConfig{
			Topic: "farmcast.ingest",
		},
		Scheduler: SchedulerConfig{
			Interval:    3 * time.Hour,
			Concurrency: 4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format %q must be json or text", c.Logging.Format)
	}
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.Postgres.DSN) == "" {
			return errors.New("storage.postgres.dsn cannot be empty when driver is postgres")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLite.Path) == "" {
			return errors.New("storage.sqlite.path cannot be empty when driver is sqlite")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of memory, postgres, sqlite", c.Storage.Driver)
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Forecast.WindowDays <= 0 {
		return errors.New("forecast.windowDays must be positive")
	}
	if _, err := time.Parse("15:04:05", c.Forecast.MiddayTime); err != nil {
		return errors.New("forecast.middayTime must be formatted as HH:MM:SS")
	}
	if _, err := time.LoadLocation(c.Forecast.Timezone); err != nil {
		return fmt.Errorf("forecast.timezone: %w", err)
	}
	if c.Alerts.Cooldown < 0 {
		return errors.New("alerts.cooldown cannot be negative")
	}
	if c.Prediction.TrailingDays <= 0 {
		return errors.New("prediction.trailingDays must be positive")
	}
	if c.Prediction.CalculationTimeout <= 0 {
		return errors.New("prediction.calculationTimeout must be positive")
	}
	switch c.Prediction.Calculator {
	case CalculatorFormula, CalculatorQueue:
	default:
		return fmt.Errorf("prediction.calculator %q is not one of formula, queue", c.Prediction.Calculator)
	}
	if c.Archive.Enabled && (strings.TrimSpace(c.Archive.Endpoint) == "" || strings.TrimSpace(c.Archive.Bucket) == "") {
		return errors.New("archive.endpoint and archive.bucket are required when the archive is enabled")
	}
	if c.Events.Enabled && (len(c.Events.Brokers) == 0 || c.Events.Topic == "") {
		return errors.New("events.brokers and events.topic are required when events are enabled")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive")
	}
	return nil
}

// Zone resolves the forecast timezone. Validate has already checked it.
func (c *Config) Zone() *time.Location {
	loc, err := time.LoadLocation(c.Forecast.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
