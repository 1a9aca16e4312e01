package repository

import (
	"context"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AmenityRepository interface {
	List(ctx context.Context) ([]domain.Amenity, error)
	GetByID(ctx context.Context, id string) (*domain.Amenity, error)
}

type PGAmenityRepository struct {
	db *pgxpool.Pool
}

func NewAmenityRepository(db *pgxpool.Pool) AmenityRepository {
	return &PGAmenityRepository{db: db}
}

const amenityColumns = `id, name, compound_name, capacity, operating_hours, advance_booking_days, max_booking_hours, slot_minutes, price_per_hour, confirmation_policy, is_active, created_at, updated_at`

func scanAmenity(row pgx.Row) (*domain.Amenity, error) {
	var a domain.Amenity
	if err := row.Scan(&a.ID, &a.Name, &a.CompoundName, &a.Capacity, &a.OperatingHours, &a.AdvanceBookingDays, &a.MaxBookingHours,
		&a.SlotMinutes, &a.PricePerHour, &a.ConfirmationPolicy, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGAmenityRepository) List(ctx context.Context) ([]domain.Amenity, error) {
	rows, err := r.db.Query(ctx, `SELECT `+amenityColumns+` FROM amenities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	amenities := make([]domain.Amenity, 0)
	for rows.Next() {
		a, err := scanAmenity(rows)
		if err != nil {
			return nil, err
		}
		amenities = append(amenities, *a)
	}
	return amenities, rows.Err()
}

func (r *PGAmenityRepository) GetByID(ctx context.Context, id string) (*domain.Amenity, error) {
	a, err := scanAmenity(r.db.QueryRow(ctx, `SELECT `+amenityColumns+` FROM amenities WHERE id=$1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAmenityNotFound
		}
		return nil, err
	}
	return a, nil
}

var _ AmenityRepository = (*PGAmenityRepository)(nil)
