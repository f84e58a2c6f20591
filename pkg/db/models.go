package db

import "time"

// Operation is a row in the operation_journal table: one façade call against
// the proxy and how it ended.
type Operation struct {
	ID           int64     `json:"id"`
	ConnectionID string    `json:"connection_id"`
	Operation    string    `json:"operation"`
	RequestID    int64     `json:"request_id"`
	ErrorType    string    `json:"error_type"`
	Error        *string   `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	StartedAt    time.Time `json:"started_at"`
	Created      time.Time `json:"created"`
}

// RecordOperationParams holds parameters for RecordOperation.
type RecordOperationParams struct {
	ConnectionID string
	Operation    string
	RequestID    int64
	ErrorType    string
	Error        string
	Duration     time.Duration
	StartedAt    time.Time
}

// ListOperationsParams filters ListOperations. Zero values mean no filter.
type ListOperationsParams struct {
	Operation string
	ErrorType string
	Limit     int
}

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

func (p ListOperationsParams) limit() int {
	switch {
	case p.Limit <= 0:
		return defaultListLimit
	case p.Limit > maxListLimit:
		return maxListLimit
	}
	return p.Limit
}
