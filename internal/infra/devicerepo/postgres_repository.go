package devicerepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/farmcast/internal/domain/notify"
)

const schema = `
CREATE TABLE IF NOT EXISTS device_subscriptions (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	player_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresRepository persists device subscriptions in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the subscription table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Register inserts a subscription row.
func (r *PostgresRepository) Register(ctx context.Context, sub notify.Subscription) (notify.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO device_subscriptions (name, phone, player_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, phone, player_id, created_at
	`, sub.Name, sub.Phone, sub.PlayerID, sub.CreatedAt)
	return scanSubscription(row)
}

// List returns every subscription ordered by ID.
func (r *PostgresRepository) List(ctx context.Context) ([]notify.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, player_id, created_at
		FROM device_subscriptions
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []notify.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (notify.Subscription, error) {
	var sub notify.Subscription
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Phone, &sub.PlayerID, &sub.CreatedAt); err != nil {
		return notify.Subscription{}, err
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}

var _ notify.Directory = (*PostgresRepository)(nil)
