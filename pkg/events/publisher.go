package events

import "context"

// EventPublisher publishes connection lifecycle events.
type EventPublisher interface {
	PublishConnection(ctx context.Context, event *ConnectionEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (used when COMMS_URL is unset).
type NoOpPublisher struct{}

// PublishConnection is a no-op.
func (p *NoOpPublisher) PublishConnection(_ context.Context, _ *ConnectionEvent) error {
	return nil
}

// CallbackPublisher hands each event to a function. Tests use it to observe transitions.
type CallbackPublisher struct {
	callback func(ctx context.Context, event *ConnectionEvent) error
}

func NewCallbackPublisher(cb func(ctx context.Context, event *ConnectionEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

func (p *CallbackPublisher) PublishConnection(ctx context.Context, event *ConnectionEvent) error {
	return p.callback(ctx, event)
}
