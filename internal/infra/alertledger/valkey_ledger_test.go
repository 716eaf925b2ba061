package alertledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
)

// FARMCAST_TEST_VALKEY_ADDR points at a disposable Valkey, e.g. localhost:6379.
func newTestValkeyLedger(t *testing.T) *ValkeyLedger {
	t.Helper()
	addr := os.Getenv("FARMCAST_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("FARMCAST_TEST_VALKEY_ADDR not set")
	}
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return NewValkeyLedger(client, "farmcast-test:"+uuid.NewString())
}

func TestValkeyLedger_ClaimReleaseAndClaimAgain(t *testing.T) {
	ledger := newTestValkeyLedger(t)
	ctx := context.Background()
	key := "10.0000,20.0000:heat"

	claimed, err := ledger.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = ledger.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	require.False(t, claimed)

	require.NoError(t, ledger.Release(ctx, key))
	claimed, err = ledger.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, ledger.Release(ctx, key))
}

func TestValkeyLedger_ClaimExpires(t *testing.T) {
	ledger := newTestValkeyLedger(t)
	ctx := context.Background()

	claimed, err := ledger.Claim(ctx, "10.0000,20.0000:rain", time.Second)
	require.NoError(t, err)
	require.True(t, claimed)

	require.Eventually(t, func() bool {
		claimed, err := ledger.Claim(ctx, "10.0000,20.0000:rain", time.Second)
		return err == nil && claimed
	}, 5*time.Second, 200*time.Millisecond)
}
