package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStatusChanged is returned when a transition lost a race: the stored
// status no longer allows it.
var ErrStatusChanged = errors.New("status changed concurrently")

type VisitorPassRepository interface {
	Create(ctx context.Context, pass *domain.VisitorPass) error
	GetByID(ctx context.Context, id string) (*domain.VisitorPass, error)
	// ApplyTransition sets tr.To only while the stored status is one of tr.To's sources.
	ApplyTransition(ctx context.Context, tr domain.PassTransition) (*domain.VisitorPass, error)
	ListPendingArrivingBefore(ctx context.Context, t time.Time) ([]domain.VisitorPass, error)
	ListOverdue(ctx context.Context, now time.Time, defaultValidity time.Duration) ([]domain.VisitorPass, error)
}

type PGVisitorPassRepository struct {
	db *pgxpool.Pool
}

func NewVisitorPassRepository(db *pgxpool.Pool) VisitorPassRepository {
	return &PGVisitorPassRepository{db: db}
}

const passColumns = `id, resident_id, unit_number, compound_name, visitor_name, visitor_phone, visit_purpose, expected_arrival, expected_departure, qr_payload, status, entry_time, cancelled_at, expired_at, created_at, updated_at`

func scanPass(row pgx.Row) (*domain.VisitorPass, error) {
	var p domain.VisitorPass
	if err := row.Scan(&p.ID, &p.ResidentID, &p.UnitNumber, &p.CompoundName, &p.VisitorName, &p.VisitorPhone, &p.VisitPurpose,
		&p.ExpectedArrival, &p.ExpectedDeparture, &p.QRPayload, &p.Status, &p.EntryTime, &p.CancelledAt, &p.ExpiredAt,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPasses(rows pgx.Rows) ([]domain.VisitorPass, error) {
	defer rows.Close()

	passes := make([]domain.VisitorPass, 0)
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, *p)
	}
	return passes, rows.Err()
}

func passStatusStrings(statuses []domain.PassStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *PGVisitorPassRepository) Create(ctx context.Context, pass *domain.VisitorPass) error {
	return r.db.QueryRow(ctx, `INSERT INTO visitor_passes (id, resident_id, unit_number, compound_name, visitor_name, visitor_phone, visit_purpose,
			expected_arrival, expected_departure, qr_payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING created_at, updated_at`,
		pass.ID, pass.ResidentID, pass.UnitNumber, pass.CompoundName, pass.VisitorName, pass.VisitorPhone, pass.VisitPurpose,
		pass.ExpectedArrival, pass.ExpectedDeparture, pass.QRPayload, string(pass.Status), pass.CreatedAt).
		Scan(&pass.CreatedAt, &pass.UpdatedAt)
}

func (r *PGVisitorPassRepository) GetByID(ctx context.Context, id string) (*domain.VisitorPass, error) {
	p, err := scanPass(r.db.QueryRow(ctx, `SELECT `+passColumns+` FROM visitor_passes WHERE id=$1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPassNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PGVisitorPassRepository) ApplyTransition(ctx context.Context, tr domain.PassTransition) (*domain.VisitorPass, error) {
	p, err := scanPass(r.db.QueryRow(ctx, `UPDATE visitor_passes
		SET status=$2::text, updated_at=$3,
			entry_time   = CASE WHEN $2::text = 'USED' THEN $3 ELSE entry_time END,
			cancelled_at = CASE WHEN $2::text = 'CANCELLED' THEN $3 ELSE cancelled_at END,
			expired_at   = CASE WHEN $2::text = 'EXPIRED' THEN $3 ELSE expired_at END
		WHERE id=$1 AND status = ANY($4)
		RETURNING `+passColumns,
		tr.PassID, string(tr.To), tr.At, passStatusStrings(tr.To.Sources())))
	if err == nil {
		return p, nil
	}
	if !isNoRows(err) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, tr.PassID); err != nil {
		return nil, err
	}
	return nil, ErrStatusChanged
}

func (r *PGVisitorPassRepository) ListPendingArrivingBefore(ctx context.Context, t time.Time) ([]domain.VisitorPass, error) {
	rows, err := r.db.Query(ctx, `SELECT `+passColumns+` FROM visitor_passes
		WHERE status=$1 AND expected_arrival <= $2
		ORDER BY expected_arrival`,
		string(domain.PassStatusPending), t)
	if err != nil {
		return nil, err
	}
	return scanPasses(rows)
}

func (r *PGVisitorPassRepository) ListOverdue(ctx context.Context, now time.Time, defaultValidity time.Duration) ([]domain.VisitorPass, error) {
	rows, err := r.db.Query(ctx, `SELECT `+passColumns+` FROM visitor_passes
		WHERE status = ANY($1)
		AND COALESCE(expected_departure, expected_arrival + make_interval(secs => $3)) < $2
		ORDER BY expected_arrival`,
		passStatusStrings(domain.ScannableStatuses()), now, defaultValidity.Seconds())
	if err != nil {
		return nil, err
	}
	return scanPasses(rows)
}

var _ VisitorPassRepository = (*PGVisitorPassRepository)(nil)
