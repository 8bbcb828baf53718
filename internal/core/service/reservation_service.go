package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/metrics"
	"github.com/rl1809/accommodator/internal/port"
)

// commitAttempts bounds how often a storage-level conflict re-runs the resolve step.
const commitAttempts = 2

type ReservationService struct {
	catalog      port.CatalogRepository
	reservations port.ReservationRepository
	locker       port.Locker
	log          logrus.FieldLogger

	now func() time.Time
}

func NewReservationService(catalog port.CatalogRepository, reservations port.ReservationRepository, locker port.Locker, log logrus.FieldLogger) *ReservationService {
	return &ReservationService{
		catalog:      catalog,
		reservations: reservations,
		locker:       locker,
		log:          log,
		now:          time.Now,
	}
}

// Confirm commits pending if the resolver accepts it. Business rejections are
// returned as ErrNoCapacity, ErrDateConflict or ErrUnitNotFound; anything else
// is a collaborator failure.
func (s *ReservationService) Confirm(ctx context.Context, pending domain.Reservation) error {
	release, err := s.locker.Acquire(ctx, unitLockKey(pending.UnitID))
	if err != nil {
		return fmt.Errorf("lock unit %d: %w", pending.UnitID, err)
	}
	defer release()

	for attempt := 1; ; attempt++ {
		err := s.resolveAndCommit(ctx, pending)
		if !errors.Is(err, port.ErrReservationConflict) {
			s.observe(err)
			return err
		}

		metrics.CommitConflicts.Inc()
		s.log.WithFields(logrus.Fields{
			"unit_id": pending.UnitID,
			"user_id": pending.UserID,
			"attempt": attempt,
		}).Warn("reservation commit conflicted")

		if attempt >= commitAttempts {
			s.observe(ErrDateConflict)
			return ErrDateConflict
		}
	}
}

func (s *ReservationService) resolveAndCommit(ctx context.Context, pending domain.Reservation) error {
	unit, err := s.catalog.GetUnit(ctx, pending.UnitID)
	if err != nil {
		return fmt.Errorf("get unit: %w", err)
	}
	if unit == nil {
		return ErrUnitNotFound
	}

	existing, err := s.reservations.FindOverlapping(ctx, pending.UnitID, pending.Dates)
	if err != nil {
		return fmt.Errorf("find overlapping: %w", err)
	}

	if err := Resolve(pending, *unit, existing); err != nil {
		return err
	}

	pending.CreatedAt = s.now().UTC()
	if err := s.reservations.Commit(ctx, pending); err != nil {
		if errors.Is(err, port.ErrReservationConflict) {
			return err
		}
		return fmt.Errorf("commit reservation: %w", err)
	}

	return nil
}

func (s *ReservationService) ListForUser(ctx context.Context, userID int64) ([]domain.ReservationView, error) {
	return s.reservations.ListByUser(ctx, userID)
}

func (s *ReservationService) observe(err error) {
	outcome := "committed"
	if err != nil {
		outcome = RejectCode(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	metrics.ReservationsTotal.WithLabelValues(outcome).Inc()
}

func unitLockKey(unitID int64) string {
	return "unit:" + strconv.FormatInt(unitID, 10)
}
