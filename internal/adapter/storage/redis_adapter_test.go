package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/port"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisState_RoundTrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStateStore(client)
	userID := int64(900001)

	// Setup
	client.Del(ctx, stateKey(userID))

	state, err := store.GetState(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.IsIdle() {
		t.Errorf("expected idle state for unknown user, got %s", state.Stage)
	}

	pending := domain.Reservation{ID: "r-1", UnitID: 3, UserID: userID, Dates: dates(t, "2022-12-24", "2022-12-25")}
	err = store.SaveState(ctx, userID, domain.ConversationState{Stage: domain.StageAwaitingConfirmation, UnitID: 3, Pending: &pending})
	if err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	state, err = store.GetState(ctx, userID)
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.Stage != domain.StageAwaitingConfirmation || state.Pending == nil {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.Pending.Dates.End.String() != "2022-12-25" {
		t.Errorf("expected end 2022-12-25, got %s", state.Pending.Dates.End)
	}

	// Keys never expire
	if ttl := client.TTL(ctx, stateKey(userID)).Val(); ttl != -1 {
		t.Errorf("expected no TTL, got %v", ttl)
	}

	store.ClearState(ctx, userID)
	if n := client.Exists(ctx, stateKey(userID)).Val(); n != 0 {
		t.Error("expected state key deleted")
	}
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	locker := NewRedisLocker(client, 5*time.Second, 5*time.Second)
	client.Del(context.Background(), lockKeyPrefix+"test:exclusion")

	var inside atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "test:exclusion")
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			if inside.Add(1) > 1 {
				violations.Add(1)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}

	wg.Wait()

	if violations.Load() != 0 {
		t.Errorf("expected no concurrent holders, saw %d", violations.Load())
	}
}

func TestRedisLocker_Timeout(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	key := "test:timeout"
	client.Del(ctx, lockKeyPrefix+key)

	locker := NewRedisLocker(client, 5*time.Second, 100*time.Millisecond)
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if _, err := locker.Acquire(ctx, key); !errors.Is(err, port.ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got: %v", err)
	}

	release()
	if n := client.Exists(ctx, lockKeyPrefix+key).Val(); n != 0 {
		t.Error("expected lock key deleted on release")
	}
}

func TestRedisLocker_ReleaseKeepsForeignLease(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	key := "test:foreign"
	client.Del(ctx, lockKeyPrefix+key)

	locker := NewRedisLocker(client, 50*time.Millisecond, time.Second)
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Our lease expires and someone else takes the key
	time.Sleep(100 * time.Millisecond)
	client.Set(ctx, lockKeyPrefix+key, "someone-else", time.Minute)

	release()

	if v := client.Get(ctx, lockKeyPrefix+key).Val(); v != "someone-else" {
		t.Errorf("expected foreign lease kept, got %q", v)
	}
	client.Del(ctx, lockKeyPrefix+key)
}
