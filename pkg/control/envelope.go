// Package control answers operator requests for a live proxy session over COMMS.
package control

import "encoding/json"

// Request is the JSON envelope for incoming control requests.
type Request struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	TimeoutMs int             `json:"timeoutMs,omitempty"`
}

// Response is the JSON envelope for control responses.
type Response struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// PingResult is the result of the "ping" method.
type PingResult struct {
	RoundTripMs int64 `json:"roundTripMs"`
}

// NameParams names a domain.
type NameParams struct {
	Name string `json:"name"`
}

// CancelParams identifies the request to cancel.
type CancelParams struct {
	RequestID int64 `json:"requestId"`
}

// CancelResult is the result of the "cancel" method.
type CancelResult struct {
	Cancelled bool `json:"cancelled"`
}
