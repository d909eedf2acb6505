package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/adapters/board"
	"github.com/sketchwire/sketchwire/internal/config"
	"github.com/sketchwire/sketchwire/internal/core"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *board.Controller, store core.EventStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ws/board", func(c *gin.Context) {
		ctl.HandleBoard(ctx, c)
	})

	r.GET("/chats/:roomId", historyHandler(store))

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
