package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Slashgear/poker-planning/internal/config"
	"github.com/Slashgear/poker-planning/internal/engine"
)

func SetupRouter(cfg *config.Config, eng *engine.Engine) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := NewHandlers(eng, cfg)

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/health", h.Health)

	log.Info().Str("module", "http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	api.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))

	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms/:code", h.RoomInfo)
	api.POST("/rooms/:code/join", h.JoinRoom)
	api.GET("/rooms/:code/events", h.StreamRoom)
	api.GET("/rooms/:code/ws", h.StreamRoomWS)
	api.PUT("/rooms/:code/vote", h.Vote)
	api.POST("/rooms/:code/reveal", h.Reveal)
	api.POST("/rooms/:code/reset", h.Reset)
	api.DELETE("/rooms/:code/members/:id", h.RemoveMember)

	return r
}
