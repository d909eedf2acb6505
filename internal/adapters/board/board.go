// Package board is the websocket session gateway: it authenticates
// connections, tracks room membership, persists shape events and fans
// them out to room members.
package board

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/app"
	"github.com/sketchwire/sketchwire/internal/auth"
	"github.com/sketchwire/sketchwire/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Verifier auth.Verifier
	Registry *app.Registry
	Store    core.EventStore

	SendBuffer   int
	ReadLimit    int64
	WriteTimeout time.Duration

	lockMu    sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewController(verifier auth.Verifier, registry *app.Registry, store core.EventStore, sendBuffer int, readLimit int64, writeTimeout time.Duration) *Controller {
	return &Controller{
		Verifier:     verifier,
		Registry:     registry,
		Store:        store,
		SendBuffer:   sendBuffer,
		ReadLimit:    readLimit,
		WriteTimeout: writeTimeout,
		roomLocks:    make(map[string]*sync.Mutex),
	}
}

// roomLock serializes append+broadcast per room so sequence order and
// delivery order never diverge.
func (ctl *Controller) roomLock(roomID string) *sync.Mutex {
	ctl.lockMu.Lock()
	defer ctl.lockMu.Unlock()
	l, ok := ctl.roomLocks[roomID]
	if !ok {
		l = &sync.Mutex{}
		ctl.roomLocks[roomID] = l
	}
	return l
}

type boardConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *boardConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *boardConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleBoard authenticates the query-string credential, upgrades the
// connection and starts its pumps. A bad credential terminates the
// attempt with no body.
func (ctl *Controller) HandleBoard(ctx context.Context, c *gin.Context) {
	userID, err := ctl.Verifier.Verify(c.Query("token"))
	if err != nil {
		log.Warn().Err(err).Str("module", "board").Msg("rejected connection")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "board").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	id := core.ConnID(uuid.NewString())
	conn := &boardConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(id, userID, conn, cancel)
	log.Info().Str("module", "board").Str("conn", string(id)).Str("user", string(userID)).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, id, userID, conn)
}
