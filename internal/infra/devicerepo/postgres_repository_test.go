package devicerepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/domain/notify"
)

func TestPostgresRepository_RegisterThenList(t *testing.T) {
	dsn := os.Getenv("FARMCAST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FARMCAST_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	playerID := "player-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM device_subscriptions WHERE player_id = $1`, playerID)
	})
	sub, err := repo.Register(ctx, notify.Subscription{Name: "Ravi", PlayerID: playerID, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NotZero(t, sub.ID)

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, s := range subs {
		if s.PlayerID == playerID {
			found = true
			require.Equal(t, sub.ID, s.ID)
			require.Equal(t, "Ravi", s.Name)
		}
	}
	require.True(t, found)
}
