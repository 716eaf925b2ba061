//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/farmcast/internal/bootstrap"
	"github.com/yanqian/farmcast/internal/domain/notify"
	"github.com/yanqian/farmcast/internal/infra/config"
	httpiface "github.com/yanqian/farmcast/internal/interface/http"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		provideLogger,
		provideStores,
		provideWeatherStore,
		provideWeatherReader,
		providePredictionRepository,
		provideDeviceDirectory,
		provideValkeyClient,
		provideAlertLedger,
		provideForecastProvider,
		provideElevationProvider,
		provideFanout,
		provideArchive,
		provideEventPublisher,
		provideWeatherConfig,
		provideIrrigationConfig,
		provideFormulaCalculator,
		provideCalculationQueue,
		notify.NewService,
		provideWeatherService,
		provideIrrigationService,
		provideScheduler,
		provideBackgroundJobs,
		provideClosers,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
