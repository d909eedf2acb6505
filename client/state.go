package client

// ConnectionState represents the current state of the synchronizer.
type ConnectionState int

const (
	// StateDisconnected means the client has not connected yet.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the client is fetching history and dialing.
	StateConnecting

	// StateConnected means the replica is live.
	StateConnected

	// StateReconnecting means the client lost its transport and will
	// resync from scratch.
	StateReconnecting

	// StateClosed means the client was explicitly closed.
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // Optional error that caused the change
}
