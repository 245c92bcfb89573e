package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/domain"
)

const wsWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent mirrors the SSE stream over a websocket: "state" frames
// carry the payload, "ping" frames are keep-alives.
type wsEvent struct {
	Type  string        `json:"type"`
	State *statePayload `json:"state,omitempty"`
}

// StreamRoomWS is the websocket flavor of the subscribe stream; same
// sink, different framing.
func (h *Handlers) StreamRoomWS(c *gin.Context) {
	code := domain.RoomCode(c.Param("code"))

	state, err := h.engine.VisibleState(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	sub, err := h.engine.Subscribe(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.engine.Unsubscribe(sub)
		log.Error().Err(err).Str("module", "http").Msg("ws upgrade failed")
		return
	}
	defer h.engine.Unsubscribe(sub)
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// reads are only consumed to notice the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	token := sessionToken(c)
	if !writeWS(conn, wsEvent{Type: "state", State: ptr(payloadFor(state))}) {
		return
	}

	keepalive := time.NewTicker(h.cfg.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub.States():
			if !ok {
				_ = writeWS(conn, wsEvent{Type: "goodbye"})
				return
			}
			if !writeWS(conn, wsEvent{Type: "state", State: ptr(payloadFor(st))}) {
				return
			}
		case <-keepalive.C:
			if !writeWS(conn, wsEvent{Type: "ping"}) {
				return
			}
			h.refreshActivity(c, code, token)
		}
	}
}

func writeWS(conn *websocket.Conn, ev wsEvent) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return false
	}
	if err := conn.WriteJSON(ev); err != nil {
		log.Debug().Err(err).Str("module", "http").Msg("ws write failed")
		return false
	}
	return true
}

func ptr[T any](v T) *T { return &v }
