package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slashgear/poker-planning/internal/domain"
	"github.com/Slashgear/poker-planning/internal/store"
)

func newTestHub(t *testing.T) (*Hub, store.RoomStore) {
	t.Helper()
	st := store.NewMemory(time.Hour)
	return New(st), st
}

func seedRoom(t *testing.T, st store.RoomStore, code domain.RoomCode) *domain.Room {
	t.Helper()
	room := domain.NewRoom(code)
	require.NoError(t, room.AddMember("tok-1", "Alice"))
	require.NoError(t, st.Create(context.Background(), room, time.Hour))
	return room
}

func TestHub_PublishDeliversLatestState(t *testing.T) {
	h, st := newTestHub(t)
	ctx := context.Background()
	room := seedRoom(t, st, "ABCDEF")

	sub := h.Subscribe("ABCDEF")
	defer h.Unsubscribe(sub)

	// mutate and persist after subscribing; publish must read the
	// persisted record, not anything cached
	require.NoError(t, room.RecordVote("tok-1", "5"))
	room.Reveal()
	require.NoError(t, st.Put(ctx, room, true))

	h.Publish(ctx, "ABCDEF")

	select {
	case state := <-sub.States():
		require.Len(t, state.Members, 1)
		assert.True(t, state.ShowResults)
		assert.Equal(t, domain.Vote("5"), state.Members[0].Vote)
	case <-time.After(time.Second):
		t.Fatal("no state delivered")
	}
}

func TestHub_PublishWithoutSubscribersIsNoOp(t *testing.T) {
	h, st := newTestHub(t)
	seedRoom(t, st, "ABCDEF")

	assert.NotPanics(t, func() {
		h.Publish(context.Background(), "ABCDEF")
	})
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	h, st := newTestHub(t)
	seedRoom(t, st, "ABCDEF")

	sub := h.Subscribe("ABCDEF")
	h.Unsubscribe(sub)
	assert.NotPanics(t, func() {
		h.Unsubscribe(sub)
	})

	_, open := <-sub.States()
	assert.False(t, open, "channel must be closed after unsubscribe")
}

func TestHub_PublishForVanishedRoomClosesSinks(t *testing.T) {
	h, st := newTestHub(t)
	ctx := context.Background()
	seedRoom(t, st, "ABCDEF")

	sub := h.Subscribe("ABCDEF")
	require.NoError(t, st.Delete(ctx, "ABCDEF"))

	h.Publish(ctx, "ABCDEF")

	select {
	case _, open := <-sub.States():
		assert.False(t, open, "sink must close when the room is gone")
	case <-time.After(time.Second):
		t.Fatal("sink not closed")
	}
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h, st := newTestHub(t)
	ctx := context.Background()
	seedRoom(t, st, "ABCDEF")

	sub := h.Subscribe("ABCDEF")
	defer h.Unsubscribe(sub)

	// never read; publishes beyond the buffer must coalesce, not hang
	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*sinkBuffer; i++ {
			h.Publish(ctx, "ABCDEF")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHub_ConcurrentSubscribeUnsubscribePublish(t *testing.T) {
	h, st := newTestHub(t)
	ctx := context.Background()
	seedRoom(t, st, "ABCDEF")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub := h.Subscribe("ABCDEF")
				h.Publish(ctx, "ABCDEF")
				h.Unsubscribe(sub)
			}
		}()
	}
	wg.Wait()
}
