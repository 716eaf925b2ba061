package calcqueue

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
)

func TestValkeyQueue_DeliversEnqueuedJob(t *testing.T) {
	addr := os.Getenv("FARMCAST_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("FARMCAST_TEST_VALKEY_ADDR not set")
	}
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	queueKey := "farmcast-test:" + uuid.NewString()
	t.Cleanup(func() { _ = client.Do(context.Background(), client.B().Del().Key(queueKey).Build()).Error() })
	queue := NewValkeyQueue(client, queueKey, slog.New(slog.NewTextHandler(io.Discard, nil)))
	queue.pollTimeout = time.Second

	received := make(chan irrigation.CalculationRequest, 1)
	queue.SetHandler(func(_ context.Context, job irrigation.CalculationRequest) { received <- job })
	t.Cleanup(func() { require.NoError(t, queue.Close()) })

	job := irrigation.CalculationRequest{ID: uuid.New(), CropType: "Rice", SoilType: "Red Soil", PlantationDate: "2024-05-01"}
	require.NoError(t, queue.Enqueue(context.Background(), job))

	select {
	case got := <-received:
		require.Equal(t, job.ID, got.ID)
		require.Equal(t, "Rice", got.CropType)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not delivered")
	}
}
