package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slashgear/poker-planning/internal/domain"
	"github.com/Slashgear/poker-planning/internal/hub"
	"github.com/Slashgear/poker-planning/internal/store"
)

func newTestReaper(t *testing.T, inactivity, grace time.Duration) (*Reaper, *Engine, store.RoomStore) {
	t.Helper()
	st := store.NewMemory(2 * time.Hour)
	h := hub.New(st)
	e := New(st, h, 2*time.Hour)
	return NewReaper(st, h, time.Minute, inactivity, grace), e, st
}

func TestReaper_EmptyRoomPastGraceIsDeleted(t *testing.T) {
	r, e, st := newTestReaper(t, 5*time.Minute, 0)
	ctx := context.Background()
	code := mustCreate(t, e)

	r.Sweep(ctx)

	ok, err := st.Exists(ctx, code)
	require.NoError(t, err)
	assert.False(t, ok, "empty room past grace must be deleted")
}

func TestReaper_EmptyRoomWithinGraceIsPreserved(t *testing.T) {
	r, e, st := newTestReaper(t, 5*time.Minute, 5*time.Minute)
	ctx := context.Background()
	code := mustCreate(t, e)

	r.Sweep(ctx)

	ok, err := st.Exists(ctx, code)
	require.NoError(t, err)
	assert.True(t, ok, "fresh empty room must survive the grace period")
}

func TestReaper_EvictsInactiveKeepsActive(t *testing.T) {
	r, e, st := newTestReaper(t, 5*time.Minute, 5*time.Minute)
	ctx := context.Background()
	code := mustCreate(t, e)
	idle := mustJoin(t, e, code, "Idle")
	active := mustJoin(t, e, code, "Active")

	room, err := st.Get(ctx, code)
	require.NoError(t, err)
	room.Members[idle.MemberID].LastActivity = time.Now().Add(-10 * time.Minute)
	require.NoError(t, st.Put(ctx, room, true))

	r.Sweep(ctx)

	room, err = st.Get(ctx, code)
	require.NoError(t, err)
	assert.NotContains(t, room.Members, idle.MemberID)
	assert.Contains(t, room.Members, active.MemberID)
}

func TestReaper_EvictionIsBroadcast(t *testing.T) {
	st := store.NewMemory(2 * time.Hour)
	h := hub.New(st)
	e := New(st, h, 2*time.Hour)
	r := NewReaper(st, h, time.Minute, 5*time.Minute, 5*time.Minute)
	ctx := context.Background()

	code := mustCreate(t, e)
	idle := mustJoin(t, e, code, "Idle")
	mustJoin(t, e, code, "Active")

	room, err := st.Get(ctx, code)
	require.NoError(t, err)
	room.Members[idle.MemberID].LastActivity = time.Now().Add(-10 * time.Minute)
	require.NoError(t, st.Put(ctx, room, true))

	sub, err := e.Subscribe(ctx, code)
	require.NoError(t, err)
	defer e.Unsubscribe(sub)

	r.Sweep(ctx)

	select {
	case state := <-sub.States():
		// subscribers see the eviction immediately, not on next vote
		require.Len(t, state.Members, 1)
		assert.Equal(t, "Active", state.Members[0].Name)
	case <-time.After(time.Second):
		t.Fatal("eviction was not broadcast")
	}
}

func TestReaper_RoomEmptiedByEvictionHonorsGrace(t *testing.T) {
	r, e, st := newTestReaper(t, 5*time.Minute, time.Hour)
	ctx := context.Background()
	code := mustCreate(t, e)
	idle := mustJoin(t, e, code, "Idle")

	room, err := st.Get(ctx, code)
	require.NoError(t, err)
	room.Members[idle.MemberID].LastActivity = time.Now().Add(-10 * time.Minute)
	require.NoError(t, st.Put(ctx, room, true))

	r.Sweep(ctx)

	// emptied, but the room is younger than the grace period
	room, err = st.Get(ctx, code)
	require.NoError(t, err)
	assert.True(t, room.Empty())
}

// failingStore makes one room's reads blow up to prove the sweep
// isolates per-room failures.
type failingStore struct {
	store.RoomStore
	failCode domain.RoomCode
}

func (s *failingStore) Get(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	if code == s.failCode {
		return nil, errors.New("store transiently unavailable")
	}
	return s.RoomStore.Get(ctx, code)
}

func TestReaper_OneFailingRoomDoesNotAbortSweep(t *testing.T) {
	st := store.NewMemory(2 * time.Hour)
	h := hub.New(st)
	e := New(st, h, 2*time.Hour)
	ctx := context.Background()

	bad := mustCreate(t, e)
	good := mustCreate(t, e)

	wrapped := &failingStore{RoomStore: st, failCode: bad}
	r := NewReaper(wrapped, h, time.Minute, 5*time.Minute, 0)

	r.Sweep(ctx)

	// the good empty room was still reaped despite the bad one failing
	ok, err := st.Exists(ctx, good)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = st.Exists(ctx, bad)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReaper_RunStopsOnCancel(t *testing.T) {
	r, _, _ := newTestReaper(t, 5*time.Minute, 5*time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on cancel")
	}
}
