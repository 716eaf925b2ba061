package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

type stubWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_KeysByLocation(t *testing.T) {
	writer := &stubWriter{}
	publisher := &KafkaPublisher{writer: writer}
	event := weather.IngestEvent{
		Location:   weather.Location{Lat: 10, Lon: 20},
		Status:     weather.StatusStored,
		Stage:      weather.StageDone,
		DaysStored: 5,
		Alert:      &weather.AlertMessage{Kind: weather.AlertHeat, Text: "High temperature alert! Please take necessary precautions."},
		AlertSent:  true,
		OccurredAt: time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC),
	}

	require.NoError(t, publisher.PublishIngest(context.Background(), event))
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	require.Equal(t, "10.0000,20.0000", string(msg.Key))

	var decoded weather.IngestEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, event, decoded)

	require.NoError(t, publisher.Close())
	require.True(t, writer.closed)
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	publisher := &KafkaPublisher{writer: &stubWriter{err: errors.New("broker down")}}
	err := publisher.PublishIngest(context.Background(), weather.IngestEvent{})
	require.ErrorContains(t, err, "broker down")
}
