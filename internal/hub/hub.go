// Package hub fans room-state changes out to live subscribers.
// Subscriber sets are process-local and rebuilt as clients reconnect;
// the persisted record stays the single source of truth.
package hub

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/domain"
	"github.com/Slashgear/poker-planning/internal/store"
)

// subscriber channels buffer a few states; a full channel is skipped
// and the subscriber converges on the next publish.
const sinkBuffer = 8

// Subscription is a live sink for one room's visible states.
// The channel closes when the room is deleted or the subscription is
// removed, which ends the consuming stream loop.
type Subscription struct {
	code domain.RoomCode
	ch   chan domain.VisibleRoomState
}

// States is the receive side of the sink.
func (s *Subscription) States() <-chan domain.VisibleRoomState {
	return s.ch
}

func (s *Subscription) Code() domain.RoomCode {
	return s.code
}

// Hub is the per-room broadcast registry.
type Hub struct {
	store store.RoomStore

	mu   sync.RWMutex
	subs map[domain.RoomCode]map[*Subscription]struct{}
}

func New(st store.RoomStore) *Hub {
	return &Hub{
		store: st,
		subs:  make(map[domain.RoomCode]map[*Subscription]struct{}),
	}
}

func (h *Hub) Subscribe(code domain.RoomCode) *Subscription {
	sub := &Subscription{code: code, ch: make(chan domain.VisibleRoomState, sinkBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[code] == nil {
		h.subs[code] = make(map[*Subscription]struct{})
	}
	h.subs[code][sub] = struct{}{}
	log.Debug().Str("module", "hub").Str("room", string(code)).Int("subs", len(h.subs[code])).Msg("subscribed")
	return sub
}

// Unsubscribe removes the sink and closes it. Idempotent, and safe
// while a publish is iterating the set: sends happen under the read
// lock, the close under the write lock.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// Publish pushes the latest persisted state of code to every current
// subscriber. The room is re-read at publish time so subscribers only
// ever see the server-side serialization of concurrent writes. Zero
// subscribers is a silent no-op. A vanished room drops its sinks.
func (h *Hub) Publish(ctx context.Context, code domain.RoomCode) {
	if h.count(code) == 0 {
		return
	}

	room, err := h.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		h.dropRoom(code)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Str("room", string(code)).Msg("publish load failed")
		return
	}
	state := room.VisibleState()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[code] {
		select {
		case sub.ch <- state:
		default:
			// slow subscriber, it will catch up on the next publish
		}
	}
}

func (h *Hub) count(code domain.RoomCode) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[code])
}

// dropRoom closes every sink of a room that no longer exists.
func (h *Hub) dropRoom(code domain.RoomCode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[code] {
		h.remove(sub)
	}
	log.Debug().Str("module", "hub").Str("room", string(code)).Msg("room gone, sinks dropped")
}

// remove deletes and closes one sink. Caller holds the write lock.
func (h *Hub) remove(sub *Subscription) {
	set, ok := h.subs[sub.code]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.code)
	}
	close(sub.ch)
}
