package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/domain"
	"github.com/Slashgear/poker-planning/internal/hub"
	"github.com/Slashgear/poker-planning/internal/store"
)

// Reaper periodically evicts inactive members and deletes empty rooms
// past their grace period. It runs independently of request flow and
// mutates the store directly, broadcasting whenever it changes a
// room's visible state.
type Reaper struct {
	store      store.RoomStore
	hub        *hub.Hub
	interval   time.Duration
	inactivity time.Duration
	grace      time.Duration

	// now is swappable for tests
	now func() time.Time
}

func NewReaper(st store.RoomStore, h *hub.Hub, interval, inactivity, grace time.Duration) *Reaper {
	return &Reaper{
		store:      st,
		hub:        h,
		interval:   interval,
		inactivity: inactivity,
		grace:      grace,
		now:        time.Now,
	}
}

// Run sweeps on a fixed ticker until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	log.Info().Str("module", "reaper").Dur("interval", r.interval).Msg("reaper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "reaper").Msg("reaper stopped")
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one full pass. One room failing never aborts the rest of
// the scan; the room is skipped and picked up next cycle.
func (r *Reaper) Sweep(ctx context.Context) {
	swept, changed := 0, 0
	err := r.store.Scan(ctx, func(code domain.RoomCode) error {
		swept++
		did, err := r.sweepRoom(ctx, code)
		if err != nil {
			log.Warn().Err(err).Str("module", "reaper").Str("room", string(code)).Msg("sweep skipped room")
			return nil
		}
		if did {
			changed++
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("module", "reaper").Msg("sweep scan failed")
		return
	}
	if changed > 0 {
		log.Info().Str("module", "reaper").Int("rooms", swept).Int("changed", changed).Msg("sweep done")
	}
}

func (r *Reaper) sweepRoom(ctx context.Context, code domain.RoomCode) (bool, error) {
	room, err := r.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		// expired between scan and load
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := r.now()
	evicted := room.EvictInactive(now.Add(-r.inactivity))

	if room.Empty() {
		// The grace period protects a freshly created room from being
		// destroyed before its first member's join lands.
		if now.Sub(room.CreatedAt) >= r.grace {
			if err := r.store.Delete(ctx, code); err != nil {
				return false, err
			}
			r.hub.Publish(ctx, code)
			log.Info().Str("module", "reaper").Str("room", string(code)).Msg("empty room deleted")
			return true, nil
		}
	}

	if evicted == 0 {
		return false, nil
	}
	if err := r.store.Put(ctx, room, true); err != nil {
		return false, err
	}
	r.hub.Publish(ctx, code)
	log.Info().Str("module", "reaper").Str("room", string(code)).Int("evicted", evicted).Msg("inactive members evicted")
	return true, nil
}
