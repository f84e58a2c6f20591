package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

const commsPublisherTestPrefix = "events:comms_publisher_test"

// startTestServer starts an in-process NATS server for testing.
func startTestServer(t *testing.T, port int) (*comms.Conn, func()) {
	t.Helper()

	ns, err := commsserver.NewServer(&commsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", commsPublisherTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", commsPublisherTestPrefix)
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", commsPublisherTestPrefix, err)
	}

	return nc, func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}
}

func subscribeOne(t *testing.T, nc *comms.Conn, subject string) (<-chan *ConnectionEvent, func()) {
	t.Helper()
	received := make(chan *ConnectionEvent, 1)
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var event ConnectionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Errorf("%s - failed to unmarshal: %v", commsPublisherTestPrefix, err)
			return
		}
		received <- &event
	})
	if err != nil {
		t.Fatalf("%s - failed to subscribe: %v", commsPublisherTestPrefix, err)
	}
	return received, func() { _ = sub.Unsubscribe() }
}

func TestCommsPublisher_PublishConnection(t *testing.T) {
	nc, cleanup := startTestServer(t, 14230)
	defer cleanup()

	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{Service: "billing"})

	granular, unsubGranular := subscribeOne(t, nc, "cadence.connection.billing.open")
	defer unsubGranular()
	global, unsubGlobal := subscribeOne(t, nc, "cadence.connection")
	defer unsubGlobal()

	event := &ConnectionEvent{
		ConnectionID:  "c-123",
		State:         "Open",
		PreviousState: "Connecting",
		ProxyURL:      "http://127.0.0.1:5000",
		Timestamp:     "2025-01-01T00:00:00Z",
	}
	if err := publisher.PublishConnection(context.Background(), event); err != nil {
		t.Fatalf("%s - PublishConnection failed: %v", commsPublisherTestPrefix, err)
	}
	nc.Flush()

	for name, ch := range map[string]<-chan *ConnectionEvent{"granular": granular, "global": global} {
		select {
		case got := <-ch:
			if got.ConnectionID != "c-123" || got.Service != "billing" || got.State != "Open" {
				t.Errorf("%s - %s event = %+v", commsPublisherTestPrefix, name, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%s - timeout waiting for %s event", commsPublisherTestPrefix, name)
		}
	}
}

func TestCommsPublisher_CustomSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14231)
	defer cleanup()

	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{Subject: "ops.cadence"})
	received, unsub := subscribeOne(t, nc, "ops.cadence.cadence-client.closed")
	defer unsub()

	if err := publisher.PublishConnection(context.Background(), &ConnectionEvent{ConnectionID: "c-9", State: "Closed"}); err != nil {
		t.Fatalf("%s - PublishConnection failed: %v", commsPublisherTestPrefix, err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if got.Service != "cadence-client" {
			t.Errorf("%s - default service = %q", commsPublisherTestPrefix, got.Service)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timeout waiting for event", commsPublisherTestPrefix)
	}
}
