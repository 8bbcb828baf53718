package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/port"
)

const (
	stateKeyPrefix   = "conversation:"
	lockKeyPrefix    = "lock:"
	lockRetryDelay   = 20 * time.Millisecond
	lockReleaseLimit = 2 * time.Second
)

var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end

return 0
`)

// RedisStateStore keeps conversation state as JSON, one key per user. Keys do
// not expire: a stalled conversation waits for the user.
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (r *RedisStateStore) GetState(ctx context.Context, userID int64) (domain.ConversationState, error) {
	data, err := r.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ConversationState{}, nil
	}
	if err != nil {
		return domain.ConversationState{}, err
	}

	var state domain.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.ConversationState{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

func (r *RedisStateStore) SaveState(ctx context.Context, userID int64, state domain.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return r.client.Set(ctx, stateKey(userID), data, 0).Err()
}

func (r *RedisStateStore) ClearState(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, stateKey(userID)).Err()
}

func stateKey(userID int64) string {
	return stateKeyPrefix + strconv.FormatInt(userID, 10)
}

// RedisLocker is a lease lock shared by every instance using the same Redis.
// A lease expires after ttl so a crashed holder cannot block a key forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if r.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}

	redisKey := lockKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", port.ErrLockTimeout, key)
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { r.release(redisKey, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", port.ErrLockTimeout, key)
		case <-time.After(lockRetryDelay):
		}
	}
}

func (r *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseLimit)
	defer cancel()
	// An expired lease is simply gone; nothing to report.
	_ = releaseLockScript.Run(ctx, r.client, []string{redisKey}, token).Err()
}
