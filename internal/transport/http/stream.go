package http

import (
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/domain"
)

// statePayload is the event body pushed to subscribers. The summary
// appears only once results are revealed; before that there are no
// numeric votes to project.
type statePayload struct {
	domain.VisibleRoomState
	Summary *domain.VoteSummary `json:"summary,omitempty"`
}

func payloadFor(state domain.VisibleRoomState) statePayload {
	p := statePayload{VisibleRoomState: state}
	if state.ShowResults {
		s := domain.Summarize(state)
		p.Summary = &s
	}
	return p
}

// StreamRoom is the SSE subscribe endpoint: a snapshot on connect,
// then every published state, with keep-alive pings in between. The
// unsubscribe is deferred so a disconnect at any point unregisters
// the sink deterministically.
func (h *Handlers) StreamRoom(c *gin.Context) {
	ctx := c.Request.Context()
	code := domain.RoomCode(c.Param("code"))

	state, err := h.engine.VisibleState(ctx, code)
	if err != nil {
		writeError(c, err)
		return
	}
	sub, err := h.engine.Subscribe(ctx, code)
	if err != nil {
		writeError(c, err)
		return
	}
	defer h.engine.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	token := sessionToken(c)
	h.writeState(c, state)

	keepalive := time.NewTicker(h.cfg.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub.States():
			if !ok {
				// room deleted or expired, tell the client and end
				_ = sse.Encode(c.Writer, sse.Event{Event: "goodbye", Data: errRoomNotFound})
				c.Writer.Flush()
				return
			}
			h.writeState(c, st)
		case <-keepalive.C:
			_ = sse.Encode(c.Writer, sse.Event{Event: "ping", Data: "keep-alive"})
			c.Writer.Flush()
			h.refreshActivity(c, code, token)
		}
	}
}

func (h *Handlers) writeState(c *gin.Context, state domain.VisibleRoomState) {
	if err := sse.Encode(c.Writer, sse.Event{Event: "state", Data: payloadFor(state)}); err != nil {
		log.Debug().Err(err).Str("module", "http").Str("room", string(state.Code)).Msg("sse write failed")
		return
	}
	c.Writer.Flush()
}

// refreshActivity keeps a streaming member from being reaped as idle.
// Best-effort: a store hiccup here must never tear the stream down.
func (h *Handlers) refreshActivity(c *gin.Context, code domain.RoomCode, token string) {
	if token == "" {
		return
	}
	if err := h.engine.Touch(c.Request.Context(), code, token); err != nil {
		log.Debug().Err(err).Str("module", "http").Str("room", string(code)).Msg("activity refresh failed")
	}
}
