package client

import "time"

// Config controls how the synchronizer connects.
type Config struct {
	// ServerURL is the websocket endpoint, e.g. "ws://localhost:8080/ws/board".
	ServerURL string
	// HistoryURL is the base URL of the history API, e.g. "http://localhost:8080".
	HistoryURL string
	// Token is the credential passed in the query string at connect time.
	Token string
	// Room is the board to synchronize with.
	Room string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	HistoryTimeout   time.Duration
	// ReconnectDelay is the fixed pause before a full resync after a
	// transport failure.
	ReconnectDelay time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		HistoryTimeout:   30 * time.Second,
		ReconnectDelay:   3 * time.Second,
	}
}
