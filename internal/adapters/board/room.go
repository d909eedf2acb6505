package board

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/core"
	"github.com/sketchwire/sketchwire/internal/domain"
)

const (
	typeJoinRoom  = "join_room"
	typeLeaveRoom = "leave_room"
	typeChat      = "chat"
	typeDelete    = "delete"
)

// envelope is the inbound frame. Message is an opaque JSON string; the
// gateway persists and broadcasts it verbatim.
type envelope struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	Message string `json:"message,omitempty"`
}

// outbound echoes the event to every room member, sender included, with
// the sender's identity attached. The sender relies on this echo rather
// than local optimism alone to stay consistent with the log.
type outbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId"`
}

func (ctl *Controller) handleEnvelope(ctx context.Context, id core.ConnID, userID domain.UserID, c *boardConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "board").Str("conn", string(id)).Msg("bad envelope")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case typeJoinRoom:
		ctl.handleJoin(id, c, env)
	case typeLeaveRoom:
		ctl.handleLeave(id, c, env)
	case typeChat:
		ctl.handleShape(ctx, id, userID, c, env, domain.EventCreate)
	case typeDelete:
		ctl.handleShape(ctx, id, userID, c, env, domain.EventDelete)
	default:
		log.Warn().Str("module", "board").Str("type", env.Type).Msg("unknown envelope type")
		ctl.sendError(c, "unknown_type")
	}
}

func (ctl *Controller) handleJoin(id core.ConnID, c *boardConn, env envelope) {
	if env.RoomID == "" {
		ctl.sendError(c, "empty roomId")
		return
	}
	ctl.Registry.Join(id, domain.RoomID(env.RoomID))
}

func (ctl *Controller) handleLeave(id core.ConnID, c *boardConn, env envelope) {
	if env.RoomID == "" {
		ctl.sendError(c, "empty roomId")
		return
	}
	ctl.Registry.Leave(id, domain.RoomID(env.RoomID))
}

// handleShape appends the event, then fans it out. Storage is
// authoritative: on append failure nothing is delivered to peers and
// the sender gets an error envelope instead, so replicas cannot diverge
// from the log.
func (ctl *Controller) handleShape(ctx context.Context, id core.ConnID, userID domain.UserID, c *boardConn, env envelope, kind domain.EventKind) {
	if env.RoomID == "" || env.Message == "" {
		ctl.sendError(c, "empty roomId or message")
		return
	}
	roomID := domain.RoomID(env.RoomID)

	lock := ctl.roomLock(env.RoomID)
	lock.Lock()
	defer lock.Unlock()

	seq, err := ctl.Store.Append(ctx, domain.ShapeEvent{
		RoomID:  roomID,
		UserID:  userID,
		Kind:    kind,
		Message: env.Message,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "board").Str("room", env.RoomID).Msg("append failed")
		ctl.sendError(c, "persist_failed")
		return
	}

	frame, err := json.Marshal(outbound{
		Type:    string(kind),
		Message: env.Message,
		RoomID:  env.RoomID,
		UserID:  string(userID),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "board").Msg("marshal outbound")
		return
	}

	res := ctl.broadcast(roomID, frame)
	log.Debug().
		Str("module", "board").
		Str("room", env.RoomID).
		Int64("seq", seq).
		Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).
		Msg("event fanned out")
}

// broadcast is non-blocking fan-out: a slow member loses the frame
// instead of stalling the room.
func (ctl *Controller) broadcast(roomID domain.RoomID, frame []byte) core.PublishResult {
	res := core.PublishResult{}
	for _, m := range ctl.Registry.Members(roomID) {
		if err := m.Conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, m.ID)
			continue
		}
		res.SentTo++
	}
	return res
}
