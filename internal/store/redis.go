package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Slashgear/poker-planning/internal/domain"
)

const (
	keyPrefix    = "room:"
	scanPageSize = 100
)

type redisStore struct {
	rdb        *redis.Client
	defaultTTL time.Duration
}

// NewRedis wraps a go-redis client as a RoomStore.
func NewRedis(rdb *redis.Client, defaultTTL time.Duration) RoomStore {
	return &redisStore{rdb: rdb, defaultTTL: defaultTTL}
}

func roomKey(code domain.RoomCode) string {
	return keyPrefix + string(code)
}

func (s *redisStore) Create(ctx context.Context, room *domain.Room, ttl time.Duration) error {
	b, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.Code, err)
	}
	if err := s.rdb.Set(ctx, roomKey(room.Code), b, ttl).Err(); err != nil {
		return fmt.Errorf("create room %s: %w", room.Code, err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	b, err := s.rdb.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", code, err)
	}
	var room domain.Room
	if err := json.Unmarshal(b, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, nil
}

func (s *redisStore) Put(ctx context.Context, room *domain.Room, preserveTTL bool) error {
	b, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", room.Code, err)
	}
	ttl := s.defaultTTL
	if preserveTTL {
		// KEEPTTL reapplies the remaining expiry atomically.
		ttl = redis.KeepTTL
	}
	if err := s.rdb.Set(ctx, roomKey(room.Code), b, ttl).Err(); err != nil {
		return fmt.Errorf("put room %s: %w", room.Code, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, code domain.RoomCode) error {
	if err := s.rdb.Del(ctx, roomKey(code)).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

func (s *redisStore) Exists(ctx context.Context, code domain.RoomCode) (bool, error) {
	n, err := s.rdb.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, fmt.Errorf("exists room %s: %w", code, err)
	}
	return n > 0, nil
}

func (s *redisStore) Scan(ctx context.Context, fn func(code domain.RoomCode) error) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, keyPrefix+"*", scanPageSize).Result()
		if err != nil {
			return fmt.Errorf("scan rooms: %w", err)
		}
		for _, k := range keys {
			if err := fn(domain.RoomCode(strings.TrimPrefix(k, keyPrefix))); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
