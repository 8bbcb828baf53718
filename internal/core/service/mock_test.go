package service

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/port"
)

// Mock catalog, reservation and user store
type mockStore struct {
	units        map[int64]domain.Unit
	reservations []domain.Reservation
	users        map[int64]domain.User
	mu           sync.Mutex

	err         error
	commitErr   error
	commitCalls int
	// rival is committed by someone else right before the next Commit call loses
	rival *domain.Reservation
}

func newMockStore(units ...domain.Unit) *mockStore {
	m := &mockStore{
		units: make(map[int64]domain.Unit),
		users: make(map[int64]domain.User),
	}
	for _, u := range units {
		m.units[u.ID] = u
	}
	return m
}

func (m *mockStore) ListAvailable(ctx context.Context) ([]domain.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Unit
	for _, u := range m.units {
		if u.Available() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetUnit(ctx context.Context, id int64) (*domain.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockStore) FindOverlapping(ctx context.Context, unitID int64, dates domain.DateRange) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.UnitID == unitID && r.Dates.Overlaps(dates) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) Commit(ctx context.Context, reservation domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commitCalls++
	if m.rival != nil {
		m.reservations = append(m.reservations, *m.rival)
		m.rival = nil
		return port.ErrReservationConflict
	}
	if m.commitErr != nil {
		return m.commitErr
	}

	unit := m.units[reservation.UnitID]
	unit.Capacity--
	m.units[unit.ID] = unit
	m.reservations = append(m.reservations, reservation)
	return nil
}

func (m *mockStore) ListByUser(ctx context.Context, userID int64) ([]domain.ReservationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ReservationView
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, domain.ReservationView{Reservation: r, UnitName: m.units[r.UnitID].Name})
		}
	}
	return out, nil
}

func (m *mockStore) GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[platformID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockStore) CreateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.users[user.PlatformID] = user
	return nil
}

func (m *mockStore) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockStore) unit(id int64) domain.Unit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.units[id]
}

func (m *mockStore) committed() []domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Reservation(nil), m.reservations...)
}

// Mock StateRepository
type mockStateStore struct {
	states     map[int64]domain.ConversationState
	mu         sync.Mutex
	getErr     error
	saveErr    error
	clearCalls int
}

func newMockStateStore() *mockStateStore {
	return &mockStateStore{states: make(map[int64]domain.ConversationState)}
}

func (m *mockStateStore) GetState(ctx context.Context, userID int64) (domain.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return domain.ConversationState{}, m.getErr
	}
	return m.states[userID], nil
}

func (m *mockStateStore) SaveState(ctx context.Context, userID int64, state domain.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[userID] = state
	return nil
}

func (m *mockStateStore) ClearState(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearCalls++
	delete(m.states, userID)
	return nil
}

func (m *mockStateStore) state(userID int64) domain.ConversationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID]
}

// Mock Locker: one mutex per key
type mockLocker struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
	err   error
}

func newMockLocker() *mockLocker {
	return &mockLocker{locks: make(map[string]*sync.Mutex)}
}

func (m *mockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return nil, m.err
	}
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock, nil
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
