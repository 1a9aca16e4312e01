package repository

import (
	"context"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub domain.PushSubscription) error
	Delete(ctx context.Context, endpoint string) error
	ListByResident(ctx context.Context, residentID string) ([]domain.PushSubscription, error)
}

type PGPushSubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewPushSubscriptionRepository(db *pgxpool.Pool) PushSubscriptionRepository {
	return &PGPushSubscriptionRepository{db: db}
}

func (r *PGPushSubscriptionRepository) Upsert(ctx context.Context, sub domain.PushSubscription) error {
	_, err := r.db.Exec(ctx, `INSERT INTO push_subscriptions (endpoint, resident_id, p256dh, auth)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (endpoint) DO UPDATE SET resident_id=EXCLUDED.resident_id, p256dh=EXCLUDED.p256dh, auth=EXCLUDED.auth`,
		sub.Endpoint, sub.ResidentID, sub.P256DH, sub.Auth)
	return err
}

func (r *PGPushSubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint=$1`, endpoint)
	return err
}

func (r *PGPushSubscriptionRepository) ListByResident(ctx context.Context, residentID string) ([]domain.PushSubscription, error) {
	rows, err := r.db.Query(ctx, `SELECT endpoint, resident_id, p256dh, auth, created_at FROM push_subscriptions WHERE resident_id=$1`, residentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]domain.PushSubscription, 0)
	for rows.Next() {
		var s domain.PushSubscription
		if err := rows.Scan(&s.Endpoint, &s.ResidentID, &s.P256DH, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

var _ PushSubscriptionRepository = (*PGPushSubscriptionRepository)(nil)
