package alertledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_ClaimWithinCooldown(t *testing.T) {
	ledger := NewMemoryLedger()
	current := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return current }
	ctx := context.Background()

	claimed, err := ledger.Claim(ctx, "10.0000,20.0000:heat", time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = ledger.Claim(ctx, "10.0000,20.0000:heat", time.Hour)
	require.NoError(t, err)
	require.False(t, claimed)

	claimed, err = ledger.Claim(ctx, "10.0000,20.0000:rain", time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	current = current.Add(time.Hour)
	claimed, err = ledger.Claim(ctx, "10.0000,20.0000:heat", time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestMemoryLedger_ReleaseAllowsReclaim(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	claimed, err := ledger.Claim(ctx, "10.0000,20.0000:heat", time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, ledger.Release(ctx, "10.0000,20.0000:heat"))
	claimed, err = ledger.Claim(ctx, "10.0000,20.0000:heat", time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)
}
