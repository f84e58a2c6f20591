package connection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/cadence-client/pkg/messages"
)

const heartbeatLogPrefix = "connection:heartbeat"

// heartbeatLoop probes the proxy every interval. It runs apart from
// application requests so a burst of slow calls cannot starve it. When the
// proxy misses MaxMissedHeartbeats in a row, or stops sending its own
// heartbeats for that many inbound periods, the connection is shut down.
func (c *Connection) heartbeatLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	c.lastInboundBeat.Store(time.Now().UnixNano())
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if reason, dead := c.probe(stop); dead {
			slog.Error(fmt.Sprintf("%s - [%s] liveness lost: %s", heartbeatLogPrefix, c.id, reason))
			// shutdown waits for this loop to exit, so it must not run inline.
			go c.shutdown(reason, false)
			return
		}
	}
}

// probe sends one heartbeat and checks inbound liveness. It reports whether
// the connection should be considered dead.
func (c *Connection) probe(stop <-chan struct{}) (string, bool) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	reply, err := c.send(ctx, messages.NewHeartbeatRequest(), c.opts.HeartbeatTimeout)
	cancel()

	select {
	case <-stop:
		return "", false
	default:
	}

	if err == nil {
		err = reply.Err()
	}
	if err != nil {
		missed := c.missed.Add(1)
		slog.Warn(fmt.Sprintf("%s - [%s] heartbeat missed (%d/%d): %v", heartbeatLogPrefix, c.id, missed, c.opts.MaxMissedHeartbeats, err))
		if int(missed) >= c.opts.MaxMissedHeartbeats {
			return fmt.Sprintf("%d consecutive heartbeats missed", missed), true
		}
	} else {
		c.missed.Store(0)
	}

	if limit := c.opts.InboundHeartbeatTimeout; limit > 0 {
		silent := time.Since(time.Unix(0, c.lastInboundBeat.Load()))
		if silent >= limit*time.Duration(c.opts.MaxMissedHeartbeats) {
			return fmt.Sprintf("no heartbeat from proxy for %s", silent.Round(time.Millisecond)), true
		}
	}
	return "", false
}
