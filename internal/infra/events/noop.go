package events

import (
	"context"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

// NoopPublisher drops events when no broker is configured.
type NoopPublisher struct{}

// PublishIngest implements weather.EventPublisher.
func (NoopPublisher) PublishIngest(context.Context, weather.IngestEvent) error {
	return nil
}

// Close implements io.Closer.
func (NoopPublisher) Close() error {
	return nil
}

var _ weather.EventPublisher = NoopPublisher{}
