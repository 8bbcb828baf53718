package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/port"
)

// MemoryStore keeps the catalog, reservations and user profiles in process.
// Commit runs under the store mutex, which makes it the atomic commit point.
type MemoryStore struct {
	mu           sync.RWMutex
	units        map[int64]domain.Unit
	reservations []domain.Reservation
	users        map[int64]domain.User
	nextUserID   int64
}

func NewMemoryStore(units ...domain.Unit) *MemoryStore {
	m := &MemoryStore{
		units: make(map[int64]domain.Unit),
		users: make(map[int64]domain.User),
	}
	for _, u := range units {
		m.units[u.ID] = u
	}
	return m
}

func (m *MemoryStore) SeedUnits(ctx context.Context, units []domain.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range units {
		m.units[u.ID] = u
	}
	return nil
}

func (m *MemoryStore) ListAvailable(ctx context.Context) ([]domain.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Unit, 0, len(m.units))
	for _, u := range m.units {
		if u.Available() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetUnit(ctx context.Context, id int64) (*domain.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryStore) FindOverlapping(ctx context.Context, unitID int64, dates domain.DateRange) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.overlapping(unitID, dates), nil
}

func (m *MemoryStore) Commit(ctx context.Context, reservation domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	unit, ok := m.units[reservation.UnitID]
	if !ok {
		return fmt.Errorf("commit: unit %d does not exist", reservation.UnitID)
	}
	if unit.Capacity <= 0 || len(m.overlapping(reservation.UnitID, reservation.Dates)) > 0 {
		return port.ErrReservationConflict
	}

	m.reservations = append(m.reservations, reservation)
	unit.Capacity--
	m.units[unit.ID] = unit
	return nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID int64) ([]domain.ReservationView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.ReservationView
	for _, r := range m.reservations {
		if r.UserID != userID {
			continue
		}
		out = append(out, domain.ReservationView{Reservation: r, UnitName: m.units[r.UnitID].Name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Dates.Start.Before(out[j].Dates.Start) })
	return out, nil
}

func (m *MemoryStore) GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[platformID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.PlatformID]; ok {
		return fmt.Errorf("create user: platform id %d already registered", user.PlatformID)
	}
	m.nextUserID++
	user.ID = m.nextUserID
	m.users[user.PlatformID] = user
	return nil
}

func (m *MemoryStore) overlapping(unitID int64, dates domain.DateRange) []domain.Reservation {
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.UnitID == unitID && r.Dates.Overlaps(dates) {
			out = append(out, r)
		}
	}
	return out
}

// MemoryStateStore keeps conversation state per user in process.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[int64]domain.ConversationState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[int64]domain.ConversationState)}
}

func (s *MemoryStateStore) GetState(ctx context.Context, userID int64) (domain.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneState(s.states[userID]), nil
}

func (s *MemoryStateStore) SaveState(ctx context.Context, userID int64, state domain.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = cloneState(state)
	return nil
}

func (s *MemoryStateStore) ClearState(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

func cloneState(state domain.ConversationState) domain.ConversationState {
	if state.Pending != nil {
		pending := *state.Pending
		state.Pending = &pending
	}
	return state
}

// MemoryLocker is a keyed mutex whose Acquire honours context cancellation.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
	wait  time.Duration
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker bounds every Acquire by wait; zero waits for the context only.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyLock), wait: wait}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	kl := l.ref(key)
	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, fmt.Errorf("%w: %s", port.ErrLockTimeout, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			l.unref(key)
		})
	}, nil
}

func (l *MemoryLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl := l.locks[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
