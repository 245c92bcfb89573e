// Package store persists serialized room records with expiry.
// The store is the only shared mutable resource between server
// processes; per-key read-modify-write is the unit of truth and
// concurrent writers are last-writer-wins by design.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Slashgear/poker-planning/internal/domain"
)

// ErrNotFound is returned by Get for a missing or expired room.
var ErrNotFound = errors.New("room record not found")

// RoomStore is the durable get/set-with-expiry interface the engine
// and reaper consume.
type RoomStore interface {
	// Create writes a fresh record with its full lifetime.
	Create(ctx context.Context, room *domain.Room, ttl time.Duration) error

	Get(ctx context.Context, code domain.RoomCode) (*domain.Room, error)

	// Put rewrites an existing record. With preserveTTL the remaining
	// lifetime is kept as-is, so member activity neither extends nor
	// shortens a room's life; without it the default lifetime applies.
	Put(ctx context.Context, room *domain.Room, preserveTTL bool) error

	Delete(ctx context.Context, code domain.RoomCode) error

	Exists(ctx context.Context, code domain.RoomCode) (bool, error)

	// Scan visits every stored room code via cursor-based pagination,
	// never a single blocking full-keyspace listing.
	Scan(ctx context.Context, fn func(code domain.RoomCode) error) error
}
