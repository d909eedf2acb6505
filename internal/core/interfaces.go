package core

import (
	"context"

	"github.com/sketchwire/sketchwire/internal/domain"
)

// Frame is a raw outbound payload, already JSON-encoded.
type Frame []byte

// ConnID identifies one websocket connection for its lifetime.
type ConnID string

// BoardConnection abstracts the transport endpoint of a connection.
// Owned by the adapter; the adapter must Close() it.
type BoardConnection interface {
	// TrySend queues a frame without blocking. It returns an error when
	// the connection is closed or its buffer is full; a full buffer
	// means sustained backpressure and the caller may drop the member.
	TrySend(Frame) error
	Close()
}

// EventStore is the durable append-only log of shape mutations.
// Append assigns the sequence; no event may be broadcast unless Append
// succeeded first.
type EventStore interface {
	Append(ctx context.Context, ev domain.ShapeEvent) (int64, error)
	// Replay returns the most recent page of a room's events in
	// ascending sequence order. It is read-only and repeatable.
	Replay(ctx context.Context, roomID domain.RoomID) ([]domain.ShapeEvent, error)
}

// PublishResult reports delivery stats/backpressure to the gateway.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}
