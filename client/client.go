// Package client implements the synchronizer side of a shared board: a
// local replica of a room's shape set, rebuilt from the event log on
// join and kept current by folding live broadcasts through the same
// reducer.
package client

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sketchwire/sketchwire/internal/core"
	"github.com/sketchwire/sketchwire/internal/domain"
)

// Client synchronizes one room. Use DefaultConfig() as a starting
// point. Not connected until Connect is called.
type Client struct {
	cfg        Config
	dispatcher Dispatcher
	httpClient *http.Client

	mu       sync.Mutex
	conn     *websocket.Conn
	state    ConnectionState
	shapes   core.ShapeState
	roomName string
	cancel   context.CancelFunc
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		state:      StateDisconnected,
		httpClient: &http.Client{Timeout: cfg.HistoryTimeout},
	}
}

// OnShapesChanged registers a callback fired with a fresh snapshot
// whenever the replica changes.
func (c *Client) OnShapesChanged(fn func([]domain.Shape)) { c.dispatcher.SetOnShapesChanged(fn) }

// OnStateChange registers a callback for connection state transitions.
func (c *Client) OnStateChange(fn func(StateEvent)) { c.dispatcher.SetOnStateChange(fn) }

// OnError registers a callback for asynchronous errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// Connect performs the initial replay-and-join synchronization, then
// starts the live loop. After a transport failure the client waits
// ReconnectDelay and repeats the full sequence: cached state is never
// trusted across a disconnect.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.ServerURL == "" || c.cfg.HistoryURL == "" {
		return newError(ErrorConnection, "empty URL")
	}
	if c.cfg.Room == "" {
		return newError(ErrorConnection, "empty room")
	}
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return newError(ErrorConnection, "already connected")
	}
	c.mu.Unlock()

	if err := c.sync(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	go c.run(runCtx)
	return nil
}

// sync is the full join sequence: fetch ordered history, fold it into
// a fresh replica, dial, announce membership.
func (c *Client) sync(ctx context.Context) error {
	c.setState(StateConnecting, nil)

	events, roomName, err := c.fetchHistory(ctx)
	if err != nil {
		return err
	}
	shapes := core.Reduce(events)

	u, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return wrapError(ErrorConnection, "parse server URL", err)
	}
	q := u.Query()
	q.Set("token", c.cfg.Token)
	u.RawQuery = q.Encode()

	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		return wrapError(ErrorConnection, "dial", err)
	}

	if err := wsjson.Write(ctx, ws, envelope{Type: typeJoinRoom, RoomID: c.cfg.Room}); err != nil {
		_ = ws.Close(websocket.StatusInternalError, "join failed")
		return wrapError(ErrorConnection, "join room", err)
	}

	c.mu.Lock()
	c.conn = ws
	c.shapes = shapes
	c.roomName = roomName
	c.mu.Unlock()
	c.setState(StateConnected, nil)
	c.dispatcher.fireShapes(c.Shapes())
	return nil
}

func (c *Client) run(ctx context.Context) {
	for {
		err := c.readLoop(ctx)
		if ctx.Err() != nil || c.State() == StateClosed {
			return
		}
		c.dispatcher.fireError(wrapError(ErrorDisconnected, "connection lost", err))
		c.setState(StateReconnecting, err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.ReconnectDelay):
			}
			if err := c.sync(ctx); err != nil {
				c.dispatcher.fireError(err)
				c.setState(StateReconnecting, err)
				continue
			}
			break
		}
	}
}

func (c *Client) readLoop(ctx context.Context) error {
	c.mu.Lock()
	ws := c.conn
	c.mu.Unlock()
	for {
		var env envelope
		if err := wsjson.Read(ctx, ws, &env); err != nil {
			return err
		}
		c.handleEnvelope(env)
	}
}

// handleEnvelope folds one live event into the replica with the same
// reducer that built it from replay, so both paths converge on the same
// prefix.
func (c *Client) handleEnvelope(env envelope) {
	switch env.Type {
	case typeChat, typeDelete:
		kind := domain.EventCreate
		if env.Type == typeDelete {
			kind = domain.EventDelete
		}
		ev := domain.ShapeEvent{
			RoomID:  domain.RoomID(env.RoomID),
			UserID:  domain.UserID(env.UserID),
			Kind:    kind,
			Message: env.Message,
		}
		c.mu.Lock()
		c.shapes = core.Apply(c.shapes, ev)
		c.mu.Unlock()
		c.dispatcher.fireShapes(c.Shapes())
	case typeError:
		c.dispatcher.fireError(fromServerMsg(env.Msg))
	}
}

// CreateShape applies the shape to the local replica immediately, then
// emits it. The broadcast echo folds again as an upsert, which is a
// no-op for id-carrying shapes.
func (c *Client) CreateShape(ctx context.Context, shape domain.Shape) error {
	return c.emit(ctx, shape, domain.EventCreate, typeChat)
}

// DeleteShape removes the shape locally and emits the deletion.
func (c *Client) DeleteShape(ctx context.Context, shape domain.Shape) error {
	return c.emit(ctx, shape, domain.EventDelete, typeDelete)
}

func (c *Client) emit(ctx context.Context, shape domain.Shape, kind domain.EventKind, wireType string) error {
	payload, err := domain.EncodeShapePayload(shape)
	if err != nil {
		return wrapError(ErrorSerialization, "encode shape", err)
	}
	ev := domain.ShapeEvent{RoomID: domain.RoomID(c.cfg.Room), Kind: kind, Message: payload}

	c.mu.Lock()
	c.shapes = core.Apply(c.shapes, ev)
	c.mu.Unlock()
	c.dispatcher.fireShapes(c.Shapes())

	return c.send(ctx, envelope{Type: wireType, RoomID: c.cfg.Room, Message: payload})
}

// LeaveRoom unsubscribes from the room without closing the connection.
func (c *Client) LeaveRoom(ctx context.Context) error {
	return c.send(ctx, envelope{Type: typeLeaveRoom, RoomID: c.cfg.Room})
}

func (c *Client) send(ctx context.Context, env envelope) error {
	c.mu.Lock()
	ws := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || ws == nil {
		return newError(ErrorNotConnected, "not connected")
	}
	if c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()
	}
	if err := wsjson.Write(ctx, ws, env); err != nil {
		return wrapError(ErrorConnection, "write", err)
	}
	return nil
}

// Shapes returns a snapshot of the current replica.
func (c *Client) Shapes() []domain.Shape {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Shape, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// RoomName returns the display name reported by the history endpoint.
func (c *Client) RoomName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomName
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(next ConnectionState, cause error) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()
	if prev != next {
		c.dispatcher.fireState(StateEvent{OldState: prev, NewState: next, Error: cause})
	}
}

// Close shuts the client down. It does not reconnect afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	c.state = StateClosed
	cancel := c.cancel
	ws := c.conn
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if ws != nil {
		return ws.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}
