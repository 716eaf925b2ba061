package predictionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/weather"
)

// MemoryRepository provides an in-memory prediction store for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]irrigation.PredictionRecord
	order   []uuid.UUID
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]irrigation.PredictionRecord)}
}

// Create stores a new record.
func (r *MemoryRepository) Create(_ context.Context, rec irrigation.PredictionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.CalculationFailed = false
	if _, exists := r.records[rec.ID]; !exists {
		r.order = append(r.order, rec.ID)
	}
	r.records[rec.ID] = rec
	return nil
}

// Complete fills the prediction fields of the record.
func (r *MemoryRepository) Complete(_ context.Context, id uuid.UUID, result irrigation.CalculationResult, at time.Time) (irrigation.PredictionRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return irrigation.PredictionRecord{}, false, nil
	}
	rec.Apply(result, at)
	r.records[id] = rec
	return rec, true, nil
}

// Get fetches by ID.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (irrigation.PredictionRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok, nil
}

// Latest returns the most recently created record of loc.
func (r *MemoryRepository) Latest(_ context.Context, loc weather.Location) (irrigation.PredictionRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	locKey := loc.Key()
	for i := len(r.order) - 1; i >= 0; i-- {
		rec := r.records[r.order[i]]
		if rec.Location.Key() == locKey {
			return rec, true, nil
		}
	}
	return irrigation.PredictionRecord{}, false, nil
}

var _ irrigation.Repository = (*MemoryRepository)(nil)
