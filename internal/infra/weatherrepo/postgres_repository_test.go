package weatherrepo

import (
	"context"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

// newTestPostgres connects to FARMCAST_TEST_POSTGRES_DSN and migrates. Each test
// writes under its own location so runs do not collide.
func newTestPostgres(t *testing.T) (*PostgresRepository, weather.Location) {
	t.Helper()
	dsn := os.Getenv("FARMCAST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FARMCAST_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	loc := weather.Location{Lat: -80 + rand.Float64()*160, Lon: -170 + rand.Float64()*340}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM daily_weather WHERE location_key = $1`, loc.Key())
		_, _ = pool.Exec(context.Background(), `DELETE FROM today_weather WHERE location_key = $1`, loc.Key())
	})
	return repo, loc
}

func TestPostgresRepository_TrailingWindowBoundary(t *testing.T) {
	repo, loc := newTestPostgres(t)
	ctx := context.Background()
	for day := 3; day <= 10; day++ {
		date := time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		require.NoError(t, repo.UpsertDailyAggregate(ctx, weather.AggregateKey{Location: loc, Date: date}, weather.DailyAggregate{Rainfall: 1}))
	}

	agg, found, err := repo.ReadTrailingAggregates(ctx, loc, 5, time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 5, agg.Days)
	require.InDelta(t, 5.0, agg.TotalRainfall, 1e-9)
}

func TestPostgresRepository_ReadTrailingAggregatesSkipsNulls(t *testing.T) {
	repo, loc := newTestPostgres(t)
	ctx := context.Background()
	upsert := func(date string, agg weather.DailyAggregate) {
		require.NoError(t, repo.UpsertDailyAggregate(ctx, weather.AggregateKey{Location: loc, Date: date}, agg))
	}
	upsert("2024-05-20", weather.DailyAggregate{MaxTemp: ptr(50), Rainfall: 100})
	upsert("2024-05-28", weather.DailyAggregate{MaxTemp: ptr(35), MinTemp: ptr(22), WindSpeed: ptr(2), Humidity: ptr(60), Rainfall: 3})
	upsert("2024-06-01", weather.DailyAggregate{MaxTemp: ptr(38), MinTemp: ptr(24), WindSpeed: ptr(4), Rainfall: 1.5})
	upsert("2024-06-02", weather.DailyAggregate{MaxTemp: ptr(45)})

	agg, found, err := repo.ReadTrailingAggregates(ctx, loc, 5, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, agg.Days)
	require.Equal(t, 38.0, *agg.MaxTemp)
	require.Equal(t, 22.0, *agg.MinTemp)
	require.InDelta(t, 3.0, *agg.AvgWindSpeed, 1e-9)
	require.InDelta(t, 60.0, *agg.AvgHumidity, 1e-9)
	require.InDelta(t, 4.5, agg.TotalRainfall, 1e-9)

	_, found, err = repo.ReadTrailingAggregates(ctx, loc, 5, time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.False(t, found)
}

func TestPostgresRepository_UpsertReplacesRow(t *testing.T) {
	repo, loc := newTestPostgres(t)
	ctx := context.Background()
	key := weather.AggregateKey{Location: loc, Date: "2024-06-01"}

	require.NoError(t, repo.UpsertDailyAggregate(ctx, key, weather.DailyAggregate{Humidity: ptr(80), Rainfall: 4}))
	require.NoError(t, repo.UpsertDailyAggregate(ctx, key, weather.DailyAggregate{Rainfall: 1}))

	agg, found, err := repo.ReadTrailingAggregates(ctx, loc, 1, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, agg.Days)
	require.Nil(t, agg.AvgHumidity)
	require.InDelta(t, 1.0, agg.TotalRainfall, 1e-9)

	require.NoError(t, repo.UpsertTodaySummary(ctx, key, weather.TodaySummary{MinTemp: 20, MaxTemp: 33, Condition: "Clear"}))
	require.NoError(t, repo.UpsertTodaySummary(ctx, key, weather.TodaySummary{MinTemp: 21, MaxTemp: 35, Condition: "Rain"}))
	summary, found, err := repo.GetTodaySummary(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Rain", summary.Condition)
	require.Equal(t, 35.0, summary.MaxTemp)
}
