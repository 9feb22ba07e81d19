package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-workers/internal/chatbot/flow"
)

func newMiniRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRepository(client, time.Hour, 5*time.Second), mr
}

func TestLoad_UnknownSessionIsIdle(t *testing.T) {
	repo, _ := newMiniRepo(t)

	state, err := repo.Load(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, flow.NewState(), state)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	repo, mr := newMiniRepo(t)
	ctx := context.Background()

	want := flow.State{Phase: flow.PhaseTicketActive, UserName: "Maria", TicketNumber: "TK000001"}
	require.NoError(t, repo.Save(ctx, "s1", want))

	got, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, time.Hour, mr.TTL("support:session:s1"))
}

func TestLoad_Expired(t *testing.T) {
	repo, mr := newMiniRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", flow.State{Phase: flow.PhaseAwaitingName}))
	mr.FastForward(2 * time.Hour)

	state, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, flow.PhaseIdle, state.Phase)
}

func TestLoad_CorruptState(t *testing.T) {
	repo, mr := newMiniRepo(t)
	require.NoError(t, mr.Set("support:session:bad", "{not json"))

	_, err := repo.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestLoad_UnknownPhase(t *testing.T) {
	repo, mr := newMiniRepo(t)
	data, _ := json.Marshal(map[string]string{"phase": "DANCING"})
	require.NoError(t, mr.Set("support:session:odd", string(data)))

	_, err := repo.Load(context.Background(), "odd")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo, mr := newMiniRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", flow.State{Phase: flow.PhaseAwaitingName}))
	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("support:session:s1"))
}

func TestLock_Exclusive(t *testing.T) {
	repo, mr := newMiniRepo(t)
	ctx := context.Background()

	unlock, err := repo.Lock(ctx, "s1")
	require.NoError(t, err)

	_, err = repo.Lock(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionBusy)

	other, err := repo.Lock(ctx, "s2")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("support:session:s1:lock"))

	again, err := repo.Lock(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLock_ExpiredLockIsNotStolenBack(t *testing.T) {
	repo, mr := newMiniRepo(t)
	ctx := context.Background()

	stale, err := repo.Lock(ctx, "s1")
	require.NoError(t, err)
	mr.FastForward(10 * time.Second)

	fresh, err := repo.Lock(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("support:session:s1:lock"))

	require.NoError(t, fresh(ctx))
	assert.False(t, mr.Exists("support:session:s1:lock"))
}

func TestAgentsOnline(t *testing.T) {
	repo, mr := newMiniRepo(t)
	ctx := context.Background()

	_, found, err := repo.AgentsOnline(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mr.Set("support:agents:online", "true"))
	online, found, err := repo.AgentsOnline(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, online)
}

func TestAgentsOnline_Garbage(t *testing.T) {
	repo, mr := newMiniRepo(t)
	require.NoError(t, mr.Set("support:agents:online", "maybe"))

	_, _, err := repo.AgentsOnline(context.Background())
	assert.Error(t, err)
}

func TestLoad_RedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("support:session:s1").SetErr(errors.New("connection reset"))

	_, err := NewRedisRepository(db, 0, 0).Load(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLock_RedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectSetNX("support:session:s1:lock", `.+`, DefaultLockTTL).SetErr(errors.New("timeout"))

	_, err := NewRedisRepository(db, 0, 0).Lock(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionBusy)
}

func TestSave_UsesDefaultTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	data, _ := json.Marshal(flow.NewState())
	mock.ExpectSet("support:session:s1", data, DefaultSessionTTL).SetVal("OK")

	require.NoError(t, NewRedisRepository(db, 0, 0).Save(context.Background(), "s1", flow.NewState()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
