package storage

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/metrics"
	"github.com/rl1809/accommodator/internal/port"
)

// Store is a persistent backend serving the catalog, reservations and profiles.
type Store interface {
	port.CatalogRepository
	port.ReservationRepository
	port.UserRepository
}

// BreakerStore fails fast while the wrapped store keeps erroring.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerStore(name string, inner Store) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		// Business outcomes are not store failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, port.ErrReservationConflict)
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateValue(to))
			log.WithFields(log.Fields{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &BreakerStore{inner: inner, cb: cb}
}

func (b *BreakerStore) ListAvailable(ctx context.Context) ([]domain.Unit, error) {
	return execute(b.cb, func() ([]domain.Unit, error) { return b.inner.ListAvailable(ctx) })
}

func (b *BreakerStore) GetUnit(ctx context.Context, id int64) (*domain.Unit, error) {
	return execute(b.cb, func() (*domain.Unit, error) { return b.inner.GetUnit(ctx, id) })
}

func (b *BreakerStore) FindOverlapping(ctx context.Context, unitID int64, dates domain.DateRange) ([]domain.Reservation, error) {
	return execute(b.cb, func() ([]domain.Reservation, error) { return b.inner.FindOverlapping(ctx, unitID, dates) })
}

func (b *BreakerStore) Commit(ctx context.Context, reservation domain.Reservation) error {
	_, err := execute(b.cb, func() (struct{}, error) { return struct{}{}, b.inner.Commit(ctx, reservation) })
	return err
}

func (b *BreakerStore) ListByUser(ctx context.Context, userID int64) ([]domain.ReservationView, error) {
	return execute(b.cb, func() ([]domain.ReservationView, error) { return b.inner.ListByUser(ctx, userID) })
}

func (b *BreakerStore) GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error) {
	return execute(b.cb, func() (*domain.User, error) { return b.inner.GetByPlatformID(ctx, platformID) })
}

func (b *BreakerStore) CreateUser(ctx context.Context, user domain.User) error {
	_, err := execute(b.cb, func() (struct{}, error) { return struct{}{}, b.inner.CreateUser(ctx, user) })
	return err
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
