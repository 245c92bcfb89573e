package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Slashgear/poker-planning/internal/domain"
)

// memoryStore keeps serialized records in process memory with the
// same TTL semantics as the redis adapter. Used for dev mode and
// tests; records go through JSON exactly like the real store so
// round-trip bugs surface early.
type memoryStore struct {
	mu         sync.Mutex
	entries    map[domain.RoomCode]*memoryEntry
	defaultTTL time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemory builds an in-process RoomStore.
func NewMemory(defaultTTL time.Duration) RoomStore {
	return &memoryStore{
		entries:    make(map[domain.RoomCode]*memoryEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *memoryStore) Create(_ context.Context, room *domain.Room, ttl time.Duration) error {
	b, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.Code, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[room.Code] = &memoryEntry{data: b, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) Get(_ context.Context, code domain.RoomCode) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(code)
	if !ok {
		return nil, ErrNotFound
	}
	var room domain.Room
	if err := json.Unmarshal(e.data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, nil
}

func (s *memoryStore) Put(_ context.Context, room *domain.Room, preserveTTL bool) error {
	b, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.Code, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires := s.now().Add(s.defaultTTL)
	if e, ok := s.live(room.Code); ok && preserveTTL {
		expires = e.expiresAt
	}
	s.entries[room.Code] = &memoryEntry{data: b, expiresAt: expires}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, code domain.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, code)
	return nil
}

func (s *memoryStore) Exists(_ context.Context, code domain.RoomCode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(code)
	return ok, nil
}

func (s *memoryStore) Scan(_ context.Context, fn func(code domain.RoomCode) error) error {
	s.mu.Lock()
	codes := make([]domain.RoomCode, 0, len(s.entries))
	for code := range s.entries {
		if _, ok := s.live(code); ok {
			codes = append(codes, code)
		}
	}
	s.mu.Unlock()

	// Callbacks run outside the lock so they may hit the store again.
	for _, code := range codes {
		if err := fn(code); err != nil {
			return err
		}
	}
	return nil
}

// live returns the entry for code, lazily dropping it when expired.
// Caller holds s.mu.
func (s *memoryStore) live(code domain.RoomCode) (*memoryEntry, bool) {
	e, ok := s.entries[code]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, code)
		return nil, false
	}
	return e, true
}
