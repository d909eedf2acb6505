package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/core"
	"github.com/sketchwire/sketchwire/internal/domain"
)

type historyMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type historyResponse struct {
	Messages []historyMessage `json:"messages"`
	RoomName string           `json:"roomName"`
}

// historyHandler serves the replay page a client folds on join: the
// most recent events of a room, ascending. Room metadata lives in an
// external service, so the identifier doubles as the display name here.
func historyHandler(store core.EventStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		events, err := store.Replay(c.Request.Context(), domain.RoomID(roomID))
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", roomID).Msg("replay failed")
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "history unavailable"})
			return
		}
		messages := make([]historyMessage, 0, len(events))
		for _, ev := range events {
			messages = append(messages, historyMessage{Type: string(ev.Kind), Message: ev.Message})
		}
		c.JSON(http.StatusOK, historyResponse{Messages: messages, RoomName: roomID})
	}
}
