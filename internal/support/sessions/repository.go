// Package sessions keeps per-session conversation state in Redis and
// serializes turns of the same session with a short-lived lock.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"support-workers/internal/chatbot/flow"
)

var ErrSessionBusy = errors.New("SESSION_BUSY")

const (
	DefaultSessionTTL = 30 * time.Minute
	DefaultLockTTL    = 10 * time.Second

	keyPrefix       = "support:session:"
	agentsOnlineKey = "support:agents:online"
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisRepository struct {
	client     redis.Cmdable
	sessionTTL time.Duration
	lockTTL    time.Duration
}

func NewRedisRepository(client redis.Cmdable, sessionTTL, lockTTL time.Duration) *RedisRepository {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &RedisRepository{client: client, sessionTTL: sessionTTL, lockTTL: lockTTL}
}

func stateKey(sessionID string) string { return keyPrefix + sessionID }
func lockKey(sessionID string) string  { return keyPrefix + sessionID + ":lock" }

// Load returns the stored state, or a fresh idle state for unknown sessions.
func (r *RedisRepository) Load(ctx context.Context, sessionID string) (flow.State, error) {
	data, err := r.client.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return flow.NewState(), nil
	}
	if err != nil {
		return flow.State{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var state flow.State
	if err := json.Unmarshal(data, &state); err != nil {
		return flow.State{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if !state.Phase.Valid() {
		return flow.State{}, fmt.Errorf("session %s has unknown phase %q", sessionID, state.Phase)
	}
	return state, nil
}

// Save stores state and refreshes the session's expiry.
func (r *RedisRepository) Save(ctx context.Context, sessionID string, state flow.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, stateKey(sessionID), data, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Lock takes the per-session turn lock. The returned func releases it only
// if this caller still owns it. ErrSessionBusy means another turn holds it.
func (r *RedisRepository) Lock(ctx context.Context, sessionID string) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKey(sessionID), token, r.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
	}
	if !ok {
		return nil, ErrSessionBusy
	}

	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, r.client, []string{lockKey(sessionID)}, token).Err(); err != nil {
			return fmt.Errorf("unlock session %s: %w", sessionID, err)
		}
		return nil
	}, nil
}

// AgentsOnline reads the live presence flag the admin panel maintains.
// found is false when the flag was never set.
func (r *RedisRepository) AgentsOnline(ctx context.Context) (online bool, found bool, err error) {
	val, err := r.client.Get(ctx, agentsOnlineKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read agents presence: %w", err)
	}
	online, err = strconv.ParseBool(val)
	if err != nil {
		return false, false, fmt.Errorf("parse agents presence %q: %w", val, err)
	}
	return online, true, nil
}
