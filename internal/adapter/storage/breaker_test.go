package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/port"
)

// Mock Store that fails every call with err
type failingStore struct {
	*MemoryStore
	err   error
	calls int
}

func (f *failingStore) GetUnit(ctx context.Context, id int64) (*domain.Unit, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Commit(ctx context.Context, reservation domain.Reservation) error {
	f.calls++
	return f.err
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	inner := NewMemoryStore(domain.Unit{ID: 1, Name: "Lodge", Capacity: 1})
	store := NewBreakerStore("test-pass", inner)
	ctx := context.Background()

	u, err := store.GetUnit(ctx, 1)
	if err != nil || u == nil || u.Name != "Lodge" {
		t.Fatalf("expected unit, got %+v, %v", u, err)
	}

	if u, err := store.GetUnit(ctx, 2); err != nil || u != nil {
		t.Errorf("expected nil unit without error, got %+v, %v", u, err)
	}

	r := domain.Reservation{ID: "r-1", UnitID: 1, UserID: 7, Dates: dates(t, "2022-12-24", "2022-12-25")}
	if err := store.Commit(ctx, r); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	views, err := store.ListByUser(ctx, 7)
	if err != nil || len(views) != 1 {
		t.Errorf("expected 1 reservation, got %d, %v", len(views), err)
	}
}

func TestBreakerStore_OpensOnFailures(t *testing.T) {
	dbErr := errors.New("connection refused")
	inner := &failingStore{MemoryStore: NewMemoryStore(), err: dbErr}
	store := NewBreakerStore("test-open", inner)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.GetUnit(ctx, 1); !errors.Is(err, dbErr) {
			t.Fatalf("call %d: expected store error, got: %v", i, err)
		}
	}

	if store.State() != gobreaker.StateOpen {
		t.Fatalf("expected breaker open, got %s", store.State())
	}

	// Open breaker fails fast without reaching the store
	_, err := store.GetUnit(ctx, 1)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got: %v", err)
	}
	if inner.calls != 5 {
		t.Errorf("expected 5 calls to reach the store, got %d", inner.calls)
	}
}

func TestBreakerStore_ConflictsDoNotTrip(t *testing.T) {
	inner := &failingStore{MemoryStore: NewMemoryStore(), err: port.ErrReservationConflict}
	store := NewBreakerStore("test-conflict", inner)

	for i := 0; i < 10; i++ {
		err := store.Commit(context.Background(), domain.Reservation{UnitID: 1})
		if !errors.Is(err, port.ErrReservationConflict) {
			t.Fatalf("call %d: expected ErrReservationConflict, got: %v", i, err)
		}
	}

	if store.State() != gobreaker.StateClosed {
		t.Errorf("expected breaker closed, got %s", store.State())
	}
}
