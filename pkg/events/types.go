// Package events defines connection lifecycle events and the publishers
// that fan them out.
package events

// ConnectionEvent is emitted on every proxy connection state transition.
type ConnectionEvent struct {
	ConnectionID  string `json:"connectionId"`
	Service       string `json:"service,omitempty"`
	State         string `json:"state"`
	PreviousState string `json:"previousState,omitempty"`
	Reason        string `json:"reason,omitempty"`
	ProxyURL      string `json:"proxyUrl"`
	Timestamp     string `json:"timestamp"`
}
