package service

import (
	"errors"

	"github.com/rl1809/accommodator/internal/core/domain"
)

var (
	ErrNoCapacity   = errors.New("no capacity")
	ErrDateConflict = errors.New("date conflict")
	ErrUnitNotFound = errors.New("unit not found")
)

// Resolve decides whether pending may be committed against unit and the
// reservations already committed for it. It returns nil to accept,
// ErrNoCapacity or ErrDateConflict to reject. When the dates collide with an
// existing reservation the conflict is reported even if capacity is also gone,
// so the loser of a race for a last slot sees DATE_CONFLICT (DESIGN.md §5,
// rejection precedence).
func Resolve(pending domain.Reservation, unit domain.Unit, existing []domain.Reservation) error {
	for _, r := range existing {
		if r.UnitID != pending.UnitID {
			continue
		}
		if r.Dates.Overlaps(pending.Dates) {
			return ErrDateConflict
		}
	}
	if unit.Capacity <= 0 {
		return ErrNoCapacity
	}
	return nil
}

// RejectCode maps a resolver error to the code carried by replies.
func RejectCode(err error) string {
	switch {
	case errors.Is(err, ErrNoCapacity):
		return "NO_CAPACITY"
	case errors.Is(err, ErrDateConflict):
		return "DATE_CONFLICT"
	case errors.Is(err, ErrUnitNotFound):
		return "UNIT_NOT_FOUND"
	default:
		return ""
	}
}
