package alertledger

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

// ValkeyLedger claims alerts with SET NX so replicas share one cooldown.
type ValkeyLedger struct {
	client valkey.Client
	prefix string
}

// NewValkeyLedger constructs a ledger backed by Valkey.
func NewValkeyLedger(client valkey.Client, prefix string) *ValkeyLedger {
	if prefix == "" {
		prefix = "farmcast:alerts"
	}
	return &ValkeyLedger{client: client, prefix: prefix}
}

// Claim implements weather.AlertLedger. A nil reply means the key is still held.
func (l *ValkeyLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	cmd := l.client.B().Set().Key(l.prefix + ":" + key).Value(time.Now().UTC().Format(time.RFC3339)).Nx().ExSeconds(seconds).Build()
	if err := l.client.Do(ctx, cmd).Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Release implements weather.AlertLedger.
func (l *ValkeyLedger) Release(ctx context.Context, key string) error {
	return l.client.Do(ctx, l.client.B().Del().Key(l.prefix+":"+key).Build()).Error()
}

var _ weather.AlertLedger = (*ValkeyLedger)(nil)
