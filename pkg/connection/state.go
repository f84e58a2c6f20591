package connection

import "fmt"

// State is the lifecycle state of a Connection. Transitions only move forward:
// Created → Connecting → Open → Closing → Closed, with Connecting able to jump
// to Closing when the handshake fails.
type State int32

const (
	Created State = iota
	Connecting
	Open
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Connecting:
		return "Connecting"
	case Open:
		return "Open"
	case Closing:
		return "Closing"
	case Closed:
		return "Closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Stats is a point-in-time snapshot of a connection.
type Stats struct {
	ConnectionID     string
	State            State
	Pending          int
	LastRequestID    int64
	MissedHeartbeats int
}
