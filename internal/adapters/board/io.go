package board

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/core"
	"github.com/sketchwire/sketchwire/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *boardConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "board").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "board").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id core.ConnID, userID domain.UserID, c *boardConn) {
	defer func() {
		log.Info().Str("module", "board").Str("conn", string(id)).Msg("readPump closing")
		c.Close()
		ctl.Registry.Drop(id)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "board").Str("conn", string(id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleEnvelope(ctx, id, userID, c, data)
		}
	}
}

func (ctl *Controller) sendJSON(c *boardConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "board").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *boardConn, msg string) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
		Msg  string `json:"msg"`
	}{"error", msg})
}
