package weatherrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

type rowKey struct {
	location string
	date     string
}

func keyOf(key weather.AggregateKey) rowKey {
	return rowKey{location: key.Location.Key(), date: key.Date}
}

// MemoryRepository keeps aggregates in process for tests and local dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	daily map[rowKey]weather.DailyAggregate
	today map[rowKey]weather.TodaySummary
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		daily: make(map[rowKey]weather.DailyAggregate),
		today: make(map[rowKey]weather.TodaySummary),
	}
}

// UpsertDailyAggregate replaces the row for key.
func (r *MemoryRepository) UpsertDailyAggregate(_ context.Context, key weather.AggregateKey, agg weather.DailyAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg.Location = key.Location
	agg.Date = key.Date
	r.daily[keyOf(key)] = agg
	return nil
}

// UpsertTodaySummary replaces the summary for key.
func (r *MemoryRepository) UpsertTodaySummary(_ context.Context, key weather.AggregateKey, summary weather.TodaySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary.Location = key.Location
	summary.Date = key.Date
	r.today[keyOf(key)] = summary
	return nil
}

// GetTodaySummary returns the summary stored for key.
func (r *MemoryRepository) GetTodaySummary(_ context.Context, key weather.AggregateKey) (weather.TodaySummary, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary, ok := r.today[keyOf(key)]
	return summary, ok, nil
}

// ReadTrailingAggregates summarizes the rows of loc inside the trailing window.
func (r *MemoryRepository) ReadTrailingAggregates(_ context.Context, loc weather.Location, windowDays int, now time.Time) (weather.TrailingAggregate, bool, error) {
	since, until := weather.TrailingWindow(windowDays, now)
	locKey := loc.Key()

	r.mu.RLock()
	rows := make([]weather.DailyAggregate, 0, windowDays+1)
	for key, agg := range r.daily {
		if key.location == locKey && key.date >= since && key.date <= until {
			rows = append(rows, agg)
		}
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	out, found := weather.SummarizeTrailing(loc, rows)
	return out, found, nil
}

// Daily lists the stored daily rows of loc by date.
func (r *MemoryRepository) Daily(loc weather.Location) []weather.DailyAggregate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	locKey := loc.Key()
	var rows []weather.DailyAggregate
	for key, agg := range r.daily {
		if key.location == locKey {
			rows = append(rows, agg)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

var _ weather.Store = (*MemoryRepository)(nil)
