package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/yanqian/farmcast/internal/domain/notify"
)

// DeviceStore implements notify.Directory on SQLite.
type DeviceStore struct {
	db *sql.DB
}

// NewDeviceStore wraps an opened database.
func NewDeviceStore(db *sql.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

func (s *DeviceStore) Register(ctx context.Context, sub notify.Subscription) (notify.Subscription, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO device_subscriptions (name, phone, player_id, created_at) VALUES (?, ?, ?, ?)
	`, sub.Name, sub.Phone, sub.PlayerID, formatTime(sub.CreatedAt))
	if err != nil {
		return notify.Subscription{}, err
	}
	if sub.ID, err = res.LastInsertId(); err != nil {
		return notify.Subscription{}, err
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}

func (s *DeviceStore) List(ctx context.Context) ([]notify.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, phone, player_id, created_at FROM device_subscriptions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []notify.Subscription
	for rows.Next() {
		var (
			sub     notify.Subscription
			created string
		)
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Phone, &sub.PlayerID, &created); err != nil {
			return nil, err
		}
		if sub.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

var _ notify.Directory = (*DeviceStore)(nil)
