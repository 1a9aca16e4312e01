package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// ListBlocking returns the pending and confirmed bookings of an amenity on date, ordered by start.
	ListBlocking(ctx context.Context, amenityID string, date time.Time) ([]domain.Booking, error)
	// Create inserts a booking unless it overlaps a blocking booking, in which
	// case a *domain.ConflictError is returned.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// UpdateStatus moves a booking to status if its stored status may transition there.
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) (*domain.Booking, error)
	// CompleteEndedBefore marks blocking bookings whose end is not after localNow as completed.
	CompleteEndedBefore(ctx context.Context, localNow time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, amenity_id, resident_id, unit_number, booking_date, start_seconds, end_seconds, guest_count, status, total_price, cancelled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b          domain.Booking
		start, end int32
	)
	if err := row.Scan(&b.ID, &b.AmenityID, &b.ResidentID, &b.UnitNumber, &b.Date, &start, &end, &b.GuestCount,
		&b.Status, &b.TotalPrice, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Date = domain.DateOf(b.Date)
	b.StartTime = fromSeconds(start)
	b.EndTime = fromSeconds(end)
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func toSeconds(t domain.TimeOfDay) int32 {
	return int32(t.Duration() / time.Second)
}

func fromSeconds(s int32) domain.TimeOfDay {
	return domain.TimeOfDay(time.Duration(s) * time.Second)
}

func bookingStatusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *PGBookingRepository) ListBlocking(ctx context.Context, amenityID string, date time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE amenity_id=$1 AND booking_date=$2 AND status = ANY($3)
		ORDER BY start_seconds`,
		amenityID, domain.DateOf(date), bookingStatusStrings(domain.BlockingBookingStatuses()))
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if conflict, err := r.findOverlap(ctx, tx, booking, true); err != nil {
		return err
	} else if conflict != nil {
		return conflict
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, amenity_id, resident_id, unit_number, booking_date, start_seconds, end_seconds, guest_count, status, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		booking.ID, booking.AmenityID, booking.ResidentID, booking.UnitNumber, domain.DateOf(booking.Date),
		toSeconds(booking.StartTime), toSeconds(booking.EndTime), booking.GuestCount, string(booking.Status), booking.TotalPrice).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		if hasSQLState(err, sqlStateExclusionViolation) {
			return r.conflictAfterRace(booking)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if hasSQLState(err, sqlStateExclusionViolation) {
			return r.conflictAfterRace(booking)
		}
		return err
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PGBookingRepository) findOverlap(ctx context.Context, q querier, booking *domain.Booking, lock bool) (*domain.ConflictError, error) {
	query := `SELECT id, start_seconds, end_seconds FROM bookings
		WHERE amenity_id=$1 AND booking_date=$2 AND status = ANY($3)
		AND start_seconds < $5 AND end_seconds > $4
		ORDER BY start_seconds LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}

	var (
		id         string
		start, end int32
	)
	err := q.QueryRow(ctx, query, booking.AmenityID, domain.DateOf(booking.Date),
		bookingStatusStrings(domain.BlockingBookingStatuses()), toSeconds(booking.StartTime), toSeconds(booking.EndTime)).
		Scan(&id, &start, &end)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.ConflictError{
		BookingID: id,
		Existing:  domain.TimeSlot{Date: domain.DateOf(booking.Date), Start: fromSeconds(start), End: fromSeconds(end)},
	}, nil
}

// conflictAfterRace reports a commit lost to a concurrent booking. The
// winner is looked up so the caller can show its interval.
func (r *PGBookingRepository) conflictAfterRace(booking *domain.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conflict, err := r.findOverlap(ctx, r.db, booking, false)
	if err != nil || conflict == nil {
		return &domain.ConflictError{Existing: domain.TimeSlot{Date: domain.DateOf(booking.Date)}}
	}
	return conflict
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$2::text, updated_at=$3,
			cancelled_at = CASE WHEN $2::text = 'CANCELLED' THEN $3 ELSE cancelled_at END
		WHERE id=$1 AND status = ANY($4)
		RETURNING `+bookingColumns,
		id, string(status), at, bookingStatusStrings(status.Sources())))
	if err == nil {
		return b, nil
	}
	if !isNoRows(err) {
		return nil, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, status)
}

func (r *PGBookingRepository) CompleteEndedBefore(ctx context.Context, localNow time.Time) ([]domain.Booking, error) {
	// booking_date and seconds are compound-local wall time; localNow is compared as a timestamp without zone.
	wall := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), localNow.Hour(), localNow.Minute(), localNow.Second(), 0, time.UTC)
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE status = ANY($2) AND booking_date + make_interval(secs => end_seconds) <= $3::timestamp
		RETURNING `+bookingColumns,
		string(domain.BookingStatusCompleted), bookingStatusStrings(domain.BookingStatusCompleted.Sources()), wall)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

var (
	_ BookingRepository = (*PGBookingRepository)(nil)
	_ querier           = (*pgxpool.Pool)(nil)
	_ querier           = (pgx.Tx)(nil)
)
