package domain

import (
	"encoding/json"
	"time"
)

// EventKind matches the persisted row type. The wire calls creates
// "chat" for historical reasons; a moved shape is re-sent as a fresh
// create carrying the same payload.
type EventKind string

const (
	EventCreate EventKind = "chat"
	EventDelete EventKind = "delete"
)

// ShapeEvent is one immutable row of a room's append-only log.
// Message is kept verbatim as received from the producer: the gateway
// never re-encodes payloads, so byte-identical echo and replay are
// guaranteed.
type ShapeEvent struct {
	Seq       int64
	RoomID    RoomID
	UserID    UserID
	Kind      EventKind
	Message   string
	CreatedAt time.Time
}

type shapePayload struct {
	Shape Shape `json:"shape"`
}

// DecodeShape parses the {"shape": ...} payload.
func (e ShapeEvent) DecodeShape() (Shape, error) {
	var p shapePayload
	if err := json.Unmarshal([]byte(e.Message), &p); err != nil {
		return Shape{}, err
	}
	return p.Shape, nil
}

// EncodeShapePayload renders a shape into the wire payload format.
func EncodeShapePayload(s Shape) (string, error) {
	b, err := json.Marshal(shapePayload{Shape: s})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
