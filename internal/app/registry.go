// Package app holds shared mutable services wired between adapters.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/core"
	"github.com/sketchwire/sketchwire/internal/domain"
)

type connEntry struct {
	userID domain.UserID
	conn   core.BoardConnection
	cancel context.CancelFunc
	rooms  map[domain.RoomID]struct{}
}

// Member is a read-only snapshot of one room member.
type Member struct {
	ID     core.ConnID
	UserID domain.UserID
	Conn   core.BoardConnection
}

// Registry maps rooms to their member connections and back. Rooms exist
// implicitly: first Join creates the member set, it is never destroyed,
// it just empties. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
	rooms map[domain.RoomID]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[core.ConnID]*connEntry),
		rooms: make(map[domain.RoomID]map[core.ConnID]struct{}),
	}
}

// Bind registers an authenticated connection before any room operation.
func (r *Registry) Bind(id core.ConnID, userID domain.UserID, conn core.BoardConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{
		userID: userID,
		conn:   conn,
		cancel: cancel,
		rooms:  make(map[domain.RoomID]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(userID)).Msg("bound connection")
}

// Join adds the connection to a room. Idempotent.
func (r *Registry) Join(id core.ConnID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return false
	}
	entry.rooms[roomID] = struct{}{}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[core.ConnID]struct{})
		r.rooms[roomID] = members
	}
	members[id] = struct{}{}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(roomID)).Msg("joined room")
	return true
}

// Leave removes the connection from a room. Idempotent.
func (r *Registry) Leave(id core.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.conns[id]; ok {
		delete(entry.rooms, roomID)
	}
	if members, ok := r.rooms[roomID]; ok {
		delete(members, id)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(roomID)).Msg("left room")
}

// Drop removes the connection from every room it belongs to and cancels
// its handlers. Invoked on disconnect.
func (r *Registry) Drop(id core.ConnID) {
	r.mu.Lock()
	entry, ok := r.conns[id]
	if ok {
		for roomID := range entry.rooms {
			if members, ok := r.rooms[roomID]; ok {
				delete(members, id)
			}
		}
		delete(r.conns, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if entry.cancel != nil {
		entry.cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("dropped connection")
}

// Members returns a snapshot of a room's member connections.
func (r *Registry) Members(roomID domain.RoomID) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Member, 0, len(ids))
	for id := range ids {
		if entry, ok := r.conns[id]; ok {
			out = append(out, Member{ID: id, UserID: entry.userID, Conn: entry.conn})
		}
	}
	return out
}

// Rooms returns the rooms the connection has joined.
func (r *Registry) Rooms(id core.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[id]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(entry.rooms))
	for roomID := range entry.rooms {
		out = append(out, roomID)
	}
	return out
}
