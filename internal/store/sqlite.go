// Package store provides implementations of core.EventStore.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/sketchwire/sketchwire/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('chat', 'delete')),
	message TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_events_room ON events (room_id, id);
`

// SQLite is the durable event store. The sequence is the sqlite rowid:
// globally monotonic, therefore strictly increasing within every room.
type SQLite struct {
	db    *sql.DB
	limit int
}

// OpenSQLite opens (or creates) the database file and ensures the
// schema. limit bounds how many trailing events Replay returns.
func OpenSQLite(path string, limit int) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers anyway; a single pooled connection also
	// keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	log.Info().Str("module", "store").Str("path", path).Msg("event store ready")
	return &SQLite{db: db, limit: limit}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Append(ctx context.Context, ev domain.ShapeEvent) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (room_id, user_id, type, message) VALUES (?, ?, ?, ?)`,
		string(ev.RoomID), string(ev.UserID), string(ev.Kind), ev.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return seq, nil
}

func (s *SQLite) Replay(ctx context.Context, roomID domain.RoomID) ([]domain.ShapeEvent, error) {
	// Most recent page, returned in ascending order.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, user_id, type, message, created_at
		 FROM events WHERE room_id = ? ORDER BY id DESC LIMIT ?`,
		string(roomID), s.limit,
	)
	if err != nil {
		return nil, fmt.Errorf("replay query: %w", err)
	}
	defer rows.Close()

	var page []domain.ShapeEvent
	for rows.Next() {
		var ev domain.ShapeEvent
		var room, user, kind string
		if err := rows.Scan(&ev.Seq, &room, &user, &kind, &ev.Message, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("replay scan: %w", err)
		}
		ev.RoomID = domain.RoomID(room)
		ev.UserID = domain.UserID(user)
		ev.Kind = domain.EventKind(kind)
		page = append(page, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("replay rows: %w", err)
	}
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}
