// Package engine wires the room aggregate, the store and the hub into
// the externally visible session operations. Every operation follows
// the same shape: resolve -> validate -> apply transition -> persist
// (preserving TTL except on creation) -> publish.
//
// There is no in-process lock per room code. Concurrent writers are
// last-writer-wins on vote/reveal/reset; an accepted, bounded risk for
// this domain rather than something optimistic concurrency would earn
// its complexity fixing.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/domain"
	"github.com/Slashgear/poker-planning/internal/hub"
	"github.com/Slashgear/poker-planning/internal/store"
)

// codeAttempts bounds the optimistic retry loop for code allocation.
// Codes are high-entropy, so running out means the store is broken.
const codeAttempts = 10

type Engine struct {
	store   store.RoomStore
	hub     *hub.Hub
	roomTTL time.Duration
}

func New(st store.RoomStore, h *hub.Hub, roomTTL time.Duration) *Engine {
	return &Engine{store: st, hub: h, roomTTL: roomTTL}
}

// JoinResult is what a successful join hands back to transport: the
// member entry plus the session token the cookie must carry.
type JoinResult struct {
	MemberID domain.MemberID
	Name     string
	Token    string
}

// RoomInfo is the lightweight room summary for the info endpoint.
type RoomInfo struct {
	Code          domain.RoomCode
	MemberCount   int
	CurrentMember *domain.Member
}

// CreateRoom allocates a code and persists an empty room with the full
// room lifetime. Collision handling is an optimistic retry: a narrow
// check-then-create window remains and is accepted as self-healing,
// since codes are high-entropy.
func (e *Engine) CreateRoom(ctx context.Context) (domain.RoomCode, error) {
	for i := 0; i < codeAttempts; i++ {
		code := domain.GenerateCode()
		exists, err := e.store.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		room := domain.NewRoom(code)
		if err := e.store.Create(ctx, room, e.roomTTL); err != nil {
			return "", err
		}
		log.Info().Str("module", "engine").Str("room", string(code)).Msg("room created")
		return code, nil
	}
	return "", fmt.Errorf("no free room code after %d attempts", codeAttempts)
}

// Join adds a member to the room. A fresh 128-bit token is minted when
// the caller supplied none; rejoining with an existing token and the
// same name is idempotent.
func (e *Engine) Join(ctx context.Context, code domain.RoomCode, name, token string) (JoinResult, error) {
	if !domain.ValidCode(code) {
		return JoinResult{}, domain.ErrInvalidCode
	}
	name = strings.TrimSpace(name)
	if !domain.ValidName(name) {
		return JoinResult{}, domain.ErrInvalidName
	}
	room, err := e.load(ctx, code)
	if err != nil {
		return JoinResult{}, err
	}
	if token == "" {
		token = uuid.NewString()
	}
	id := domain.MemberID(token)

	if m, ok := room.Members[id]; ok && strings.EqualFold(m.Name, name) {
		room.Touch(id)
	} else if err := room.AddMember(id, name); err != nil {
		return JoinResult{}, err
	}

	if err := e.persist(ctx, room); err != nil {
		return JoinResult{}, err
	}
	e.hub.Publish(ctx, code)
	log.Info().Str("module", "engine").Str("room", string(code)).Str("name", name).Msg("member joined")
	return JoinResult{MemberID: id, Name: name, Token: token}, nil
}

// Vote records the caller's estimate.
func (e *Engine) Vote(ctx context.Context, code domain.RoomCode, token, value string) error {
	v, err := domain.ParseVote(value)
	if err != nil {
		return err
	}
	room, member, err := e.resolve(ctx, code, token)
	if err != nil {
		return err
	}
	if err := room.RecordVote(member.ID, v); err != nil {
		return err
	}
	if err := e.persist(ctx, room); err != nil {
		return err
	}
	e.hub.Publish(ctx, code)
	return nil
}

// Reveal makes all votes visible. Any member may reveal, however many
// have voted; revealing twice is a no-op.
func (e *Engine) Reveal(ctx context.Context, code domain.RoomCode, token string) error {
	room, _, err := e.resolve(ctx, code, token)
	if err != nil {
		return err
	}
	room.Reveal()
	if err := e.persist(ctx, room); err != nil {
		return err
	}
	e.hub.Publish(ctx, code)
	return nil
}

// Reset hides results and clears votes for the next item.
func (e *Engine) Reset(ctx context.Context, code domain.RoomCode, token string) error {
	room, _, err := e.resolve(ctx, code, token)
	if err != nil {
		return err
	}
	room.Reset()
	if err := e.persist(ctx, room); err != nil {
		return err
	}
	e.hub.Publish(ctx, code)
	return nil
}

// RemoveMember lets any member remove any other (or themselves).
func (e *Engine) RemoveMember(ctx context.Context, code domain.RoomCode, token string, target domain.MemberID) error {
	room, _, err := e.resolve(ctx, code, token)
	if err != nil {
		return err
	}
	if err := room.RemoveMember(target); err != nil {
		return err
	}
	if err := e.persist(ctx, room); err != nil {
		return err
	}
	e.hub.Publish(ctx, code)
	log.Info().Str("module", "engine").Str("room", string(code)).Str("member", string(target)).Msg("member removed")
	return nil
}

// RoomInfo returns the room summary plus the caller's membership when
// the supplied token resolves to one.
func (e *Engine) RoomInfo(ctx context.Context, code domain.RoomCode, token string) (RoomInfo, error) {
	room, err := e.load(ctx, code)
	if err != nil {
		return RoomInfo{}, err
	}
	info := RoomInfo{Code: room.Code, MemberCount: len(room.Members)}
	if m, ok := room.Members[domain.MemberID(token)]; ok {
		info.CurrentMember = m
	}
	return info, nil
}

// VisibleState loads the current projection for an initial stream
// snapshot.
func (e *Engine) VisibleState(ctx context.Context, code domain.RoomCode) (domain.VisibleRoomState, error) {
	room, err := e.load(ctx, code)
	if err != nil {
		return domain.VisibleRoomState{}, err
	}
	return room.VisibleState(), nil
}

// Touch refreshes the caller's activity stamp without broadcasting.
// Keep-alive plumbing treats failures here as non-critical.
func (e *Engine) Touch(ctx context.Context, code domain.RoomCode, token string) error {
	room, member, err := e.resolve(ctx, code, token)
	if err != nil {
		return err
	}
	room.Touch(member.ID)
	return e.persist(ctx, room)
}

// Subscribe registers a live sink for the room's state changes.
func (e *Engine) Subscribe(ctx context.Context, code domain.RoomCode) (*hub.Subscription, error) {
	exists, err := e.store.Exists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	return e.hub.Subscribe(code), nil
}

// Unsubscribe deterministically unregisters a sink; callers defer it.
func (e *Engine) Unsubscribe(sub *hub.Subscription) {
	e.hub.Unsubscribe(sub)
}

// resolve maps the session token to a member inside the room. A bad
// code format, an expired room and a reaped room all present as the
// same "room not found" so lifecycle details never leak.
func (e *Engine) resolve(ctx context.Context, code domain.RoomCode, token string) (*domain.Room, *domain.Member, error) {
	if !domain.ValidCode(code) {
		return nil, nil, domain.ErrRoomNotFound
	}
	room, err := e.load(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if token == "" {
		return nil, nil, domain.ErrUnauthenticated
	}
	member, ok := room.Members[domain.MemberID(token)]
	if !ok {
		return nil, nil, domain.ErrNotAMember
	}
	return room, member, nil
}

func (e *Engine) load(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	room, err := e.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	return room, err
}

// persist rewrites the record keeping its remaining lifetime, so
// normal activity never extends a room past its creation TTL.
func (e *Engine) persist(ctx context.Context, room *domain.Room) error {
	return e.store.Put(ctx, room, true)
}
