package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/farmcast/internal/domain/notify"
	apperrors "github.com/yanqian/farmcast/pkg/errors"
	"github.com/yanqian/farmcast/pkg/util"
)

// Stage is a step of one ingestion run.
type Stage string

const (
	StageFetching   Stage = "fetching"
	StageReducing   Stage = "reducing"
	StagePersisting Stage = "persisting"
	StageEvaluating Stage = "evaluating"
	StageNotifying  Stage = "notifying"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// IngestStatus is the outcome reported to callers.
type IngestStatus string

const (
	// StatusStored means daily aggregates and today's summary were written.
	StatusStored  IngestStatus = "stored"
	// StatusPartial means daily aggregates were written but today had no data.
	StatusPartial IngestStatus = "partial"
	StatusFailed  IngestStatus = "failed"
)

// Config controls ingestion.
type Config struct {
	Reducer       ReducerConfig
	Rules         AlertRules
	AlertCooldown time.Duration
}

// IngestRequest triggers one run for one location.
type IngestRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Location validates the request and returns its coordinates.
func (r IngestRequest) Location() (Location, error) {
	if r.Lat == nil || r.Lon == nil {
		return Location{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and lon are required", nil)
	}
	loc := Location{Lat: *r.Lat, Lon: *r.Lon}
	return loc, loc.Validate()
}

// IngestResult describes how far a run got.
type IngestResult struct {
	Location    Location       `json:"location"`
	Status      IngestStatus   `json:"status"`
	Stage       Stage          `json:"stage"`
	FailedAt    Stage          `json:"failedAt,omitempty"`
	DaysStored  int            `json:"daysStored"`
	TodayStored bool           `json:"todayStored"`
	AlertSent   bool           `json:"alertSent"`
	Alert       *AlertMessage  `json:"alert,omitempty"`
	Delivery    *notify.Report `json:"delivery,omitempty"`
}

// IngestEvent is published after every run.
type IngestEvent struct {
	Location   Location      `json:"location"`
	Status     IngestStatus  `json:"status"`
	Stage      Stage         `json:"stage"`
	DaysStored int           `json:"daysStored"`
	Alert      *AlertMessage `json:"alert,omitempty"`
	AlertSent  bool          `json:"alertSent"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Notifier broadcasts a message to every subscriber.
type Notifier interface {
	Broadcast(ctx context.Context, message string) notify.Report
}

// Service is the ingestion pipeline plus the today read path.
type Service interface {
	Ingest(ctx context.Context, req IngestRequest) (IngestResult, error)
	IngestLocation(ctx context.Context, loc Location) (IngestResult, error)
	Today(ctx context.Context, loc Location) (TodaySummary, error)
}

type service struct {
	cfg      Config
	provider ForecastProvider
	store    Store
	notifier Notifier
	archive  Archive
	events   EventPublisher
	ledger   AlertLedger
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the ingestion pipeline. archive, events and ledger may be nil.
func NewService(cfg Config, provider ForecastProvider, store Store, notifier Notifier, archive Archive, events EventPublisher, ledger AlertLedger, logger *slog.Logger) Service {
	cfg.Reducer = cfg.Reducer.normalized()
	return &service{
		cfg:      cfg,
		provider: provider,
		store:    store,
		notifier: notifier,
		archive:  archive,
		events:   events,
		ledger:   ledger,
		logger:   logger.With("component", "weather.service"),
		now:      time.Now,
	}
}

func (s *service) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	loc, err := req.Location()
	if err != nil {
		return IngestResult{Status: StatusFailed, Stage: StageFailed}, err
	}
	return s.IngestLocation(ctx, loc)
}

func (s *service) IngestLocation(ctx context.Context, loc Location) (IngestResult, error) {
	run := &ingestRun{
		result: IngestResult{Location: loc, Stage: StageFetching},
		logger: s.logger.With("location", loc.Key()),
	}
	err := s.run(ctx, run)
	if err != nil {
		run.fail(err)
	}
	s.publish(ctx, run.result)
	return run.result, err
}

type ingestRun struct {
	result IngestResult
	logger *slog.Logger
}

func (r *ingestRun) enter(stage Stage) {
	r.result.Stage = stage
	r.logger.Debug("ingest stage", "stage", stage)
}

func (r *ingestRun) fail(err error) {
	r.result.FailedAt = r.result.Stage
	r.result.Stage = StageFailed
	r.result.Status = StatusFailed
	r.logger.Error("ingest failed", "failedAt", r.result.FailedAt, "error", err)
}

func (s *service) run(ctx context.Context, run *ingestRun) error {
	loc := run.result.Location
	now := s.now().In(s.cfg.Reducer.Zone)
	today := util.DateIn(now, s.cfg.Reducer.Zone)

	forecast, err := s.provider.FetchForecast(ctx, loc)
	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.Wrap(apperrors.CodeProviderError, "forecast fetch failed", err)
		}
		return err
	}
	if forecast.Samples == nil {
		return apperrors.Wrap(apperrors.CodeProviderError, "forecast payload has no sample list", nil)
	}
	s.archiveForecast(ctx, loc, now, forecast.Raw)

	run.enter(StageReducing)
	reduction, err := Reduce(loc, forecast.Samples, today, s.cfg.Reducer)
	hasToday := true
	if err != nil {
		if !errors.Is(err, ErrNoCurrentDayData) {
			return err
		}
		hasToday = false
		run.logger.Warn("no forecast samples for today, skipping today summary", "date", today)
	}

	run.enter(StagePersisting)
	for _, day := range reduction.Days {
		if err := s.store.UpsertDailyAggregate(ctx, KeyOf(day), day); err != nil {
			return apperrors.Wrap(apperrors.CodeStoreError, fmt.Sprintf("persist aggregate for %s", day.Date), err)
		}
		run.result.DaysStored++
	}
	if !hasToday {
		run.result.Status = StatusPartial
		run.enter(StageDone)
		run.logger.Info("ingest finished", "status", run.result.Status, "days", run.result.DaysStored)
		return nil
	}
	key := AggregateKey{Location: loc, Date: today}
	if err := s.store.UpsertTodaySummary(ctx, key, *reduction.Today); err != nil {
		return apperrors.Wrap(apperrors.CodeStoreError, "persist today summary", err)
	}
	run.result.TodayStored = true
	run.result.Status = StatusStored

	run.enter(StageEvaluating)
	reading, _ := reduction.AlertReading()
	alert, fired := EvaluateAlert(reading, s.cfg.Rules)
	if !fired {
		run.enter(StageDone)
		run.logger.Info("ingest finished", "status", run.result.Status, "days", run.result.DaysStored, "alert", false)
		return nil
	}
	run.result.Alert = &alert

	run.enter(StageNotifying)
	claim, suppressed := s.claimAlert(ctx, loc, today, alert, run.logger)
	if suppressed {
		run.enter(StageDone)
		return nil
	}
	report := s.notifier.Broadcast(ctx, alert.Text)
	run.result.Delivery = &report
	run.result.AlertSent = report.Delivered > 0
	if !run.result.AlertSent && claim != "" {
		if err := s.ledger.Release(ctx, claim); err != nil {
			run.logger.Warn("alert ledger release failed", "key", claim, "error", err)
		}
	}
	if !report.OK() {
		run.logger.Warn("alert delivery incomplete", "kind", alert.Kind, "failures", len(report.Failures))
	}
	run.enter(StageDone)
	run.logger.Info("ingest finished", "status", run.result.Status, "days", run.result.DaysStored, "alert", alert.Kind, "sent", run.result.AlertSent)
	return nil
}

// claimAlert consults the cooldown ledger and returns the held key, empty when nothing was claimed.
// Ledger errors never block delivery. A claim that delivers nothing is released by the caller.
func (s *service) claimAlert(ctx context.Context, loc Location, today string, alert AlertMessage, logger *slog.Logger) (string, bool) {
	if s.ledger == nil || s.cfg.AlertCooldown <= 0 {
		return "", false
	}
	key := fmt.Sprintf("%s:%s", loc.Key(), alert.Kind)
	claimed, err := s.ledger.Claim(ctx, key, s.cfg.AlertCooldown)
	if err != nil {
		logger.Warn("alert ledger unavailable, sending anyway", "error", err)
		return "", false
	}
	if !claimed {
		logger.Info("alert suppressed by cooldown", "kind", alert.Kind, "date", today, "cooldown", s.cfg.AlertCooldown)
		return "", true
	}
	return key, false
}

func (s *service) archiveForecast(ctx context.Context, loc Location, now time.Time, raw []byte) {
	if s.archive == nil || len(raw) == 0 {
		return
	}
	key := fmt.Sprintf("forecasts/%s/%s.json", loc.Key(), now.UTC().Format("20060102T150405Z"))
	if err := s.archive.Put(ctx, key, raw); err != nil {
		s.logger.Warn("forecast archive failed", "key", key, "error", err)
	}
}

func (s *service) publish(ctx context.Context, result IngestResult) {
	if s.events == nil {
		return
	}
	event := IngestEvent{
		Location:   result.Location,
		Status:     result.Status,
		Stage:      result.Stage,
		DaysStored: result.DaysStored,
		Alert:      result.Alert,
		AlertSent:  result.AlertSent,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishIngest(ctx, event); err != nil {
		s.logger.Warn("ingest event publish failed", "location", result.Location.Key(), "error", err)
	}
}

func (s *service) Today(ctx context.Context, loc Location) (TodaySummary, error) {
	if err := loc.Validate(); err != nil {
		return TodaySummary{}, err
	}
	today := util.DateIn(s.now(), s.cfg.Reducer.Zone)
	summary, found, err := s.store.GetTodaySummary(ctx, AggregateKey{Location: loc, Date: today})
	if err != nil {
		return TodaySummary{}, apperrors.Wrap(apperrors.CodeStoreError, "load today summary", err)
	}
	if !found {
		return TodaySummary{}, apperrors.Wrap(apperrors.CodeNotFound, "no weather summary for today", nil)
	}
	return summary, nil
}
