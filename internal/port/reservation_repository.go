package port

import (
	"context"
	"errors"

	"github.com/rl1809/accommodator/internal/core/domain"
)

// ErrReservationConflict is returned by Commit when the unit lost its capacity
// or gained an overlapping reservation since it was last read.
var ErrReservationConflict = errors.New("reservation conflict")

type ReservationRepository interface {
	// FindOverlapping returns committed reservations for the unit sharing at least one date with dates
	FindOverlapping(ctx context.Context, unitID int64, dates domain.DateRange) ([]domain.Reservation, error)

	// Commit atomically inserts the reservation and decrements the unit capacity,
	// re-checking capacity and overlap at the storage level
	Commit(ctx context.Context, reservation domain.Reservation) error

	// ListByUser returns the user's reservations ordered by start date
	ListByUser(ctx context.Context, userID int64) ([]domain.ReservationView, error)
}
