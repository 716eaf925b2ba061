package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/farmcast/internal/bootstrap"
	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/notify"
	"github.com/yanqian/farmcast/internal/domain/weather"
	"github.com/yanqian/farmcast/internal/infra/alertledger"
	"github.com/yanqian/farmcast/internal/infra/archive"
	"github.com/yanqian/farmcast/internal/infra/calcqueue"
	"github.com/yanqian/farmcast/internal/infra/config"
	"github.com/yanqian/farmcast/internal/infra/devicerepo"
	"github.com/yanqian/farmcast/internal/infra/elevation"
	"github.com/yanqian/farmcast/internal/infra/events"
	"github.com/yanqian/farmcast/internal/infra/httpx"
	"github.com/yanqian/farmcast/internal/infra/onesignal"
	"github.com/yanqian/farmcast/internal/infra/openweather"
	"github.com/yanqian/farmcast/internal/infra/predictionrepo"
	"github.com/yanqian/farmcast/internal/infra/scheduler"
	"github.com/yanqian/farmcast/internal/infra/sqlitestore"
	"github.com/yanqian/farmcast/internal/infra/watercalc"
	"github.com/yanqian/farmcast/internal/infra/weatherrepo"
	applog "github.com/yanqian/farmcast/pkg/logger"
)

func provideLogger(cfg *config.Config) *slog.Logger {
	return applog.New(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}

// stores groups the repositories of the selected storage driver.
type stores struct {
	weather     weather.Store
	predictions irrigation.Repository
	devices     notify.Directory
}

func memoryStores() *stores {
	return &stores{
		weather:     weatherrepo.NewMemoryRepository(),
		predictions: predictionrepo.NewMemoryRepository(),
		devices:     devicerepo.NewMemoryRepository(),
	}
}

func provideStores(cfg *config.Config, logger *slog.Logger) *stores {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return providePostgresStores(cfg.Storage.Postgres, logger)
	case config.DriverSQLite:
		return provideSQLiteStores(cfg.Storage.SQLite, logger)
	default:
		logger.Info("using memory storage")
		return memoryStores()
	}
}

func providePostgresStores(cfg config.PostgresConfig, logger *slog.Logger) *stores {
	fallback := memoryStores()
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory storage")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory storage", "error", err)
		return fallback
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory storage", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory storage", "error", err)
		pool.Close()
		return fallback
	}

	weatherRepo := weatherrepo.NewPostgresRepository(pool)
	predictionRepo := predictionrepo.NewPostgresRepository(pool)
	deviceRepo := devicerepo.NewPostgresRepository(pool)
	migrations := []struct {
		name    string
		migrate func(context.Context) error
	}{
		{"weather", weatherRepo.Migrate},
		{"predictions", predictionRepo.Migrate},
		{"devices", deviceRepo.Migrate},
	}
	for _, m := range migrations {
		if err := m.migrate(ctx); err != nil {
			logger.Error("postgres migration failed, using memory storage", "schema", m.name, "error", err)
			pool.Close()
			return fallback
		}
	}
	logger.Info("postgres storage enabled")
	return &stores{weather: weatherRepo, predictions: predictionRepo, devices: deviceRepo}
}

func provideSQLiteStores(cfg config.SQLiteConfig, logger *slog.Logger) *stores {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := sqlitestore.Open(ctx, cfg.Path)
	if err != nil {
		logger.Error("failed to open sqlite database, using memory storage", "path", cfg.Path, "error", err)
		return memoryStores()
	}
	logger.Info("sqlite storage enabled", "path", cfg.Path)
	return &stores{
		weather:     sqlitestore.NewWeatherStore(db),
		predictions: sqlitestore.NewPredictionStore(db),
		devices:     sqlitestore.NewDeviceStore(db),
	}
}

func provideWeatherStore(s *stores) weather.Store {
	return s.weather
}

func provideWeatherReader(s *stores) irrigation.WeatherReader {
	return s.weather
}

func providePredictionRepository(s *stores) irrigation.Repository {
	return s.predictions
}

func provideDeviceDirectory(s *stores) notify.Directory {
	return s.devices
}

// provideValkeyClient returns nil when valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) valkey.Client {
	if !cfg.Valkey.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to in-process queue and ledger", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to in-process queue and ledger", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to in-process queue and ledger", "error", err)
		client.Close()
		return nil
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideAlertLedger(client valkey.Client) weather.AlertLedger {
	if client != nil {
		return alertledger.NewValkeyLedger(client, "")
	}
	return alertledger.NewMemoryLedger()
}

func httpxConfig(name string, cfg config.ClientConfig) httpx.Config {
	return httpx.Config{
		Name:    name,
		Timeout: cfg.Timeout,
		Backoff: httpx.BackoffConfig{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.InitialInterval,
			MaxInterval:     cfg.MaxInterval,
		},
	}
}

func provideForecastProvider(cfg *config.Config, logger *slog.Logger) (weather.ForecastProvider, error) {
	client, err := openweather.NewClient(cfg.Forecast.BaseURL, cfg.Forecast.APIKey, httpx.New(httpxConfig("openweather", cfg.Forecast.Client), nil), logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideElevationProvider(cfg *config.Config, logger *slog.Logger) irrigation.ElevationProvider {
	if !cfg.Elevation.Enabled {
		logger.Info("elevation lookup disabled")
		return nil
	}
	return elevation.NewClient(cfg.Elevation.BaseURL, httpx.New(httpxConfig("elevation", cfg.Elevation.Client), nil))
}

func provideFanout(cfg *config.Config, logger *slog.Logger) *notify.Fanout {
	fanoutCfg := notify.FanoutConfig{
		BatchSize:   cfg.Notifications.BatchSize,
		Concurrency: cfg.Notifications.Concurrency,
	}
	client, err := onesignal.NewClient(onesignal.Config{
		BaseURL:   cfg.Notifications.BaseURL,
		AppID:     cfg.Notifications.AppID,
		APIKey:    cfg.Notifications.APIKey,
		SMSSender: cfg.Notifications.SMSFrom,
	}, httpx.New(httpxConfig("onesignal", cfg.Notifications.Client), nil), logger)
	if err != nil {
		logger.Warn("onesignal not configured, alerts will not be delivered", "error", err)
		return notify.NewFanout(fanoutCfg, nil, nil, logger)
	}
	if !cfg.Notifications.SMSEnabled {
		return notify.NewFanout(fanoutCfg, client, nil, logger)
	}
	return notify.NewFanout(fanoutCfg, client, client, logger)
}

func provideArchive(cfg *config.Config, logger *slog.Logger) weather.Archive {
	if !cfg.Archive.Enabled {
		return nil
	}
	store, err := archive.NewS3Archive(archive.S3Config{
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Bucket:    cfg.Archive.Bucket,
		Region:    cfg.Archive.Region,
	}, logger)
	if err != nil {
		logger.Error("archive unavailable, raw forecasts will not be kept", "error", err)
		return nil
	}
	logger.Info("forecast archive enabled", "bucket", cfg.Archive.Bucket)
	return store
}

// eventPublisher is the publisher plus its lifecycle.
type eventPublisher interface {
	weather.EventPublisher
	io.Closer
}

func provideEventPublisher(cfg *config.Config, logger *slog.Logger) eventPublisher {
	if !cfg.Events.Enabled {
		return events.NoopPublisher{}
	}
	logger.Info("kafka events enabled", "topic", cfg.Events.Topic)
	return events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
}

func provideWeatherConfig(cfg *config.Config) weather.Config {
	return weather.Config{
		Reducer: weather.ReducerConfig{
			WindowDays:  cfg.Forecast.WindowDays,
			MiddayClock: cfg.Forecast.MiddayTime,
			Zone:        cfg.Zone(),
		},
		Rules: weather.AlertRules{
			HeatThresholdC:  cfg.Alerts.HeatThresholdC,
			RainThresholdMm: cfg.Alerts.RainThresholdMm,
		},
		AlertCooldown: cfg.Alerts.Cooldown,
	}
}

func provideWeatherService(cfg weather.Config, provider weather.ForecastProvider, store weather.Store, notifier notify.Service, archive weather.Archive, publisher eventPublisher, ledger weather.AlertLedger, logger *slog.Logger) weather.Service {
	return weather.NewService(cfg, provider, store, notifier, archive, publisher, ledger, logger)
}

func provideIrrigationConfig(cfg *config.Config) irrigation.Config {
	return irrigation.Config{
		TrailingDays:       cfg.Prediction.TrailingDays,
		CalculationTimeout: cfg.Prediction.CalculationTimeout,
		PollInterval:       cfg.Prediction.PollInterval,
		Zone:               cfg.Zone(),
	}
}

func provideFormulaCalculator(logger *slog.Logger) *watercalc.Calculator {
	return watercalc.NewCalculator(logger)
}

func provideCalculationQueue(cfg *config.Config, client valkey.Client, logger *slog.Logger) calcqueue.Queue {
	if cfg.Prediction.Calculator == config.CalculatorQueue && client != nil {
		return calcqueue.NewValkeyQueue(client, cfg.Prediction.QueueKey, logger)
	}
	return calcqueue.NewImmediateQueue()
}

// provideIrrigationService picks the calculator and, in queue mode, attaches the worker
// that completes queued jobs through the service itself.
func provideIrrigationService(cfg *config.Config, irrigationCfg irrigation.Config, reader irrigation.WeatherReader, elevationProvider irrigation.ElevationProvider, formula *watercalc.Calculator, queue calcqueue.Queue, repo irrigation.Repository, logger *slog.Logger) irrigation.Service {
	if cfg.Prediction.Calculator != config.CalculatorQueue {
		return irrigation.NewService(irrigationCfg, reader, elevationProvider, formula, repo, logger)
	}
	svc := irrigation.NewService(irrigationCfg, reader, elevationProvider, calcqueue.NewQueuedCalculator(queue), repo, logger)
	queue.SetHandler(calcqueue.NewWorker(formula, svc, logger).Handle)
	logger.Info("water calculations run through the job queue")
	return svc
}

func provideScheduler(cfg *config.Config, svc weather.Service, logger *slog.Logger) *scheduler.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	locations := make([]weather.Location, 0, len(cfg.Scheduler.Locations))
	for _, loc := range cfg.Scheduler.Locations {
		locations = append(locations, weather.Location{Lat: loc.Lat, Lon: loc.Lon})
	}
	return scheduler.New(scheduler.Config{
		Interval:    cfg.Scheduler.Interval,
		Concurrency: cfg.Scheduler.Concurrency,
		Locations:   locations,
	}, svc, logger)
}

func provideBackgroundJobs(sched *scheduler.Scheduler) []bootstrap.Background {
	if sched == nil {
		return nil
	}
	return []bootstrap.Background{sched}
}

func provideClosers(queue calcqueue.Queue, publisher eventPublisher) []io.Closer {
	return []io.Closer{queue, publisher}
}
