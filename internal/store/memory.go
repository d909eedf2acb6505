package store

import (
	"context"
	"sync"
	"time"

	"github.com/sketchwire/sketchwire/internal/domain"
)

// Memory is an in-process event store for tests and ephemeral boards.
// Same contract as SQLite, nothing survives a restart.
type Memory struct {
	mu    sync.RWMutex
	seq   int64
	rooms map[domain.RoomID][]domain.ShapeEvent
	limit int
}

func NewMemory(limit int) *Memory {
	return &Memory{rooms: make(map[domain.RoomID][]domain.ShapeEvent), limit: limit}
}

func (m *Memory) Append(_ context.Context, ev domain.ShapeEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ev.Seq = m.seq
	ev.CreatedAt = time.Now()
	m.rooms[ev.RoomID] = append(m.rooms[ev.RoomID], ev)
	return ev.Seq, nil
}

func (m *Memory) Replay(_ context.Context, roomID domain.RoomID) ([]domain.ShapeEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := m.rooms[roomID]
	if len(events) > m.limit {
		events = events[len(events)-m.limit:]
	}
	out := make([]domain.ShapeEvent, len(events))
	copy(out, events)
	return out, nil
}
