package devicerepo

import (
	"context"
	"sync"

	"github.com/yanqian/farmcast/internal/domain/notify"
)

// MemoryRepository keeps device subscriptions in process.
type MemoryRepository struct {
	mu   sync.RWMutex
	subs []notify.Subscription
	seq  int64
}

// NewMemoryRepository constructs an empty directory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Register stores the subscription and assigns its ID.
func (r *MemoryRepository) Register(_ context.Context, sub notify.Subscription) (notify.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	sub.ID = r.seq
	r.subs = append(r.subs, sub)
	return sub, nil
}

// List returns every subscription in registration order.
func (r *MemoryRepository) List(_ context.Context) ([]notify.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]notify.Subscription, len(r.subs))
	copy(out, r.subs)
	return out, nil
}

var _ notify.Directory = (*MemoryRepository)(nil)
