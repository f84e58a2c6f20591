package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/cadence-client/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// Subject overrides the global lifecycle subject (CADENCE_EVENT_SUBJECT).
	Subject string
	// Service names the publishing process in granular subjects.
	Service string
}

// CommsPublisher publishes connection events to COMMS subjects.
type CommsPublisher struct {
	nc      *comms.Conn
	subject string
	service string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	p := &CommsPublisher{nc: nc, subject: commsutil.SubjectConnectionEvent, service: commsutil.DefaultService}
	if opts != nil {
		if opts.Subject != "" {
			p.subject = opts.Subject
		}
		if opts.Service != "" {
			p.service = opts.Service
		}
	}
	return p
}

// PublishConnection publishes the event to the granular per-service, per-state
// subject and then to the global subject.
func (p *CommsPublisher) PublishConnection(_ context.Context, event *ConnectionEvent) error {
	if event.Service == "" {
		event.Service = p.service
	}
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granular := commsutil.BuildConnectionSubject(p.subject, event.Service, event.State)
	if err := p.nc.Publish(granular, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granular, err))
		return err
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.subject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published %s for connection %s", commsPublisherLogPrefix, event.State, event.ConnectionID))
	return nil
}
