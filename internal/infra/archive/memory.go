package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

// MemoryArchive keeps payloads in memory. Useful for tests and local dev.
type MemoryArchive struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryArchive constructs the archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{blobs: make(map[string][]byte)}
}

// Put stores a copy of payload under key.
func (a *MemoryArchive) Put(_ context.Context, key string, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[key] = append([]byte(nil), payload...)
	return nil
}

// Get returns the payload stored under key.
func (a *MemoryArchive) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	blob, ok := a.blobs[key]
	return blob, ok
}

// Keys lists stored keys in order.
func (a *MemoryArchive) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.blobs))
	for key := range a.blobs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var _ weather.Archive = (*MemoryArchive)(nil)
