package predictionrepo

import (
	"context"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/farmcast/internal/domain/irrigation"
	"github.com/yanqian/farmcast/internal/domain/weather"
)

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
	require.NoError(t, repo.Migrate(ctx), "migration must be re-runnable")

	loc := weather.Location{Lat: -80 + rand.Float64()*160, Lon: -170 + rand.Float64()*340}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM water_predictions WHERE location_key = $1`, loc.Key())
	})
	return repo, loc
}

func TestPostgresRepository_LatestBreaksCreatedAtTies(t *testing.T) {
	repo, loc := newTestPostgres(t)
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	first := irrigation.PredictionRecord{ID: uuid.New(), Location: loc, CropType: "Rice", SoilType: "Red Soil", PlantationDate: "2024-05-01", CreatedAt: at, UpdatedAt: at}
	second := first
	second.ID = uuid.New()
	second.CropType = "Cotton"
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	latest, found, err := repo.Latest(ctx, loc)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, second.ID, latest.ID)
}

func TestPostgresRepository_CompleteFillsRecord(t *testing.T) {
	repo, loc := newTestPostgres(t)
	ctx := context.Background()
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	rec := irrigation.PredictionRecord{ID: uuid.New(), Location: loc, CropType: "Rice", SoilType: "Red Soil", PlantationDate: "2024-05-01", CreatedAt: created, UpdatedAt: created}
	require.NoError(t, repo.Create(ctx, rec))

	updated, found, err := repo.Complete(ctx, rec.ID, irrigation.CalculationResult{
		WaterPredicted: 1200, WaterPredictedPerArea: 486, NextWaterDate: "2024-06-03", WaterFrequency: 4, Instruction: "Water your Rice every 4 days.",
	}, created.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, updated.Completed())
	require.Equal(t, "2024-06-03", *updated.NextWaterDate)

	_, found, err = repo.Complete(ctx, uuid.New(), irrigation.CalculationResult{}, created)
	require.NoError(t, err)
	require.False(t, found)
}
