// Package http adapts the session engine to gin. Handlers stay thin:
// decode, call the engine, map the domain error to a status. All the
// room logic lives behind the engine.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/config"
	"github.com/Slashgear/poker-planning/internal/domain"
	"github.com/Slashgear/poker-planning/internal/engine"
)

// sessionCookie carries the opaque member token. Host-only (no Domain
// attribute) and HttpOnly, refreshed on each successful join.
const sessionCookie = "sessionId"

// Stable error kinds surfaced to clients.
const (
	errInvalidCode     = "invalid-code"
	errInvalidName     = "invalid-name"
	errInvalidVote     = "invalid-vote"
	errRoomNotFound    = "room-not-found"
	errNameConflict    = "name-taken"
	errNotAMember      = "not-a-member"
	errTargetNotFound  = "member-not-found"
	errUnauthenticated = "no-session"
	errInternal        = "internal-error"
)

type Handlers struct {
	engine *engine.Engine
	cfg    *config.Config
}

func NewHandlers(eng *engine.Engine, cfg *config.Config) *Handlers {
	return &Handlers{engine: eng, cfg: cfg}
}

func sessionToken(c *gin.Context) string {
	token, _ := c.Cookie(sessionCookie)
	return token
}

func (h *Handlers) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, int(h.cfg.RoomTTL.Seconds()), "/", "", false, true)
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	code, err := h.engine.CreateRoom(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": code})
}

type joinRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) JoinRoom(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrInvalidName)
		return
	}
	code := domain.RoomCode(c.Param("code"))
	res, err := h.engine.Join(c.Request.Context(), code, req.Name, sessionToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	h.setSessionCookie(c, res.Token)
	c.JSON(http.StatusOK, gin.H{"memberId": res.MemberID, "name": res.Name})
}

func (h *Handlers) RoomInfo(c *gin.Context) {
	code := domain.RoomCode(c.Param("code"))
	info, err := h.engine.RoomInfo(c.Request.Context(), code, sessionToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	var current any
	if info.CurrentMember != nil {
		current = gin.H{"id": info.CurrentMember.ID, "name": info.CurrentMember.Name}
	}
	c.JSON(http.StatusOK, gin.H{
		"code":          info.Code,
		"memberCount":   info.MemberCount,
		"currentMember": current,
	})
}

type voteRequest struct {
	Vote string `json:"vote"`
}

func (h *Handlers) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrInvalidVote)
		return
	}
	code := domain.RoomCode(c.Param("code"))
	if err := h.engine.Vote(c.Request.Context(), code, sessionToken(c), req.Vote); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Reveal(c *gin.Context) {
	code := domain.RoomCode(c.Param("code"))
	if err := h.engine.Reveal(c.Request.Context(), code, sessionToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Reset(c *gin.Context) {
	code := domain.RoomCode(c.Param("code"))
	if err := h.engine.Reset(c.Request.Context(), code, sessionToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) RemoveMember(c *gin.Context) {
	code := domain.RoomCode(c.Param("code"))
	target := domain.MemberID(c.Param("id"))
	if err := h.engine.RemoveMember(c.Request.Context(), code, sessionToken(c), target); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCode})
	case errors.Is(err, domain.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidName})
	case errors.Is(err, domain.ErrInvalidVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidVote})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthenticated})
	case errors.Is(err, domain.ErrNotAMember):
		c.JSON(http.StatusForbidden, gin.H{"error": errNotAMember})
	case errors.Is(err, domain.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errRoomNotFound})
	case errors.Is(err, domain.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errTargetNotFound})
	case errors.Is(err, domain.ErrNameConflict):
		c.JSON(http.StatusConflict, gin.H{"error": errNameConflict})
	default:
		log.Error().Err(err).Str("module", "http").Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
	}
}
