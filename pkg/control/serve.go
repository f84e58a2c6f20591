package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/cadence-client/pkg/commsutil"
	"github.com/morezero/cadence-client/pkg/connection"
)

const serveLogPrefix = "control:serve"

// ServeParams holds parameters for Serve.
type ServeParams struct {
	Conn       *comms.Conn
	Subject    string
	Dispatcher *Dispatcher
	// RequestTimeout caps every request; a smaller TimeoutMs from the caller
	// wins. Zero means connection.DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Serve subscribes to the control subject and answers each request through
// the dispatcher. Unsubscribe (or drain the connection) to stop serving.
func Serve(ctx context.Context, params ServeParams) (*comms.Subscription, error) {
	subject := params.Subject
	if subject == "" {
		subject = commsutil.SubjectControl
	}
	disp := params.Dispatcher
	requestTimeout := params.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = connection.DefaultRequestTimeout
	}

	sub, err := params.Conn.Subscribe(subject, func(msg *comms.Msg) {
		var req Request
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", serveLogPrefix, err))
			respond(msg, errorResponse("", CodeInvalidRequest, "Failed to decode request", false))
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		if req.TimeoutMs > 0 && time.Duration(req.TimeoutMs)*time.Millisecond < requestTimeout {
			cancel()
			reqCtx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		}
		defer cancel()

		respond(msg, disp.Dispatch(reqCtx, &req))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", serveLogPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", serveLogPrefix, subject))
	return sub, nil
}

func respond(msg *comms.Msg, resp *Response) {
	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", serveLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - respond failed: %v", serveLogPrefix, err))
	}
}
