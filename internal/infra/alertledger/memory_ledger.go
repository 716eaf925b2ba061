package alertledger

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

// MemoryLedger tracks alert claims in process memory for tests/dev.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

// NewMemoryLedger constructs an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claims: make(map[string]time.Time), now: time.Now}
}

// Claim implements weather.AlertLedger.
func (l *MemoryLedger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if expiresAt, ok := l.claims[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	l.claims[key] = now.Add(ttl)
	return true, nil
}

// Release implements weather.AlertLedger.
func (l *MemoryLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.claims, key)
	l.mu.Unlock()
	return nil
}

var _ weather.AlertLedger = (*MemoryLedger)(nil)
