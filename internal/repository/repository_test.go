package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewAmenityRepository(pool))
	assert.NotNil(t, NewBookingRepository(pool))
	assert.NotNil(t, NewVisitorPassRepository(pool))
	assert.NotNil(t, NewPushSubscriptionRepository(pool))
}

func TestHasSQLState(t *testing.T) {
	exclusion := &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}

	assert.True(t, hasSQLState(exclusion, sqlStateExclusionViolation))
	assert.True(t, hasSQLState(fmt.Errorf("insert booking: %w", exclusion), sqlStateExclusionViolation))
	assert.False(t, hasSQLState(&pgconn.PgError{Code: "23505"}, sqlStateExclusionViolation))
	assert.False(t, hasSQLState(errors.New("23P01"), sqlStateExclusionViolation))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, isNoRows(pgx.ErrNoRows))
	assert.True(t, isNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, isNoRows(nil))
}

func TestSecondsConversion(t *testing.T) {
	tod := domain.TimeOfDay(14*time.Hour + 30*time.Minute + 15*time.Second)

	assert.Equal(t, int32(52215), toSeconds(tod))
	assert.Equal(t, tod, fromSeconds(toSeconds(tod)))
	assert.Equal(t, int32(86400), toSeconds(domain.EndOfDay))
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, []string{"PENDING", "CONFIRMED"}, bookingStatusStrings(domain.BlockingBookingStatuses()))
	assert.Equal(t, []string{"PENDING", "ACTIVE"}, passStatusStrings(domain.PassStatusUsed.Sources()))
	assert.Equal(t, []string{"PENDING"}, passStatusStrings(domain.PassStatusActive.Sources()))
}

func TestSchemaDeclaresOverlapConstraint(t *testing.T) {
	assert.Contains(t, schema, "CONSTRAINT bookings_no_overlap EXCLUDE USING gist")
	assert.Contains(t, schema, "WHERE (status IN ('PENDING', 'CONFIRMED'))")
}
