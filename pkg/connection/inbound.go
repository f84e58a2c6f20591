package connection

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/messages"
	"github.com/morezero/cadence-client/pkg/wire"
)

const inboundLogPrefix = "connection:inbound"

// EchoPath answers with the re-encoded envelope it was sent.
const EchoPath = "/echo"

const maxInboundBytes = 64 << 20

// InboundFunc answers a proxy-initiated request. Returning a nil reply with a
// nil error sends an empty success reply; returning an error sends a reply
// whose ErrorType is derived from the error.
type InboundFunc func(ctx context.Context, req messages.Request) (messages.Reply, error)

// Handle installs fn for inbound requests of type t, replacing any earlier handler.
func (c *Connection) Handle(t messages.MessageType, fn InboundFunc) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[t] = fn
}

func (c *Connection) handler(t messages.MessageType) (InboundFunc, bool) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	fn, ok := c.handlers[t]
	return fn, ok
}

// ServeHTTP is the listener the proxy POSTs to. Replies are routed to their
// pending request and acknowledged with an empty 200. Requests are answered
// with the encoded reply in the response body. A malformed body fails only
// this call.
func (c *Connection) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInboundBytes))
	if err != nil {
		slog.Error(fmt.Sprintf("%s - [%s] failed to read body: %v", inboundLogPrefix, c.id, err))
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	if r.URL.Path == EchoPath {
		c.serveEcho(w, body)
		return
	}

	msg, err := c.opts.Registry.Decode(body)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - [%s] failed to decode inbound envelope: %v", inboundLogPrefix, c.id, err))
		http.Error(w, "malformed envelope", http.StatusBadRequest)
		return
	}

	switch m := msg.(type) {
	case messages.Reply:
		c.deliver(m)
		w.WriteHeader(http.StatusOK)
	case messages.Request:
		reply := c.dispatch(r.Context(), m)
		data, err := messages.Encode(reply)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - [%s] failed to encode %s: %v", inboundLogPrefix, c.id, reply.Type(), err))
			http.Error(w, "encode failure", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	default:
		slog.Warn(fmt.Sprintf("%s - [%s] ignoring inbound %s: not a request or reply", inboundLogPrefix, c.id, msg.Type()))
		http.Error(w, "unexpected message", http.StatusBadRequest)
	}
}

func (c *Connection) serveEcho(w http.ResponseWriter, body []byte) {
	env, err := wire.Decode(body)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - [%s] echo decode failed: %v", inboundLogPrefix, c.id, err))
		http.Error(w, "malformed envelope", http.StatusBadRequest)
		return
	}
	data, err := wire.Encode(env)
	if err != nil {
		http.Error(w, "encode failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType)
	_, _ = w.Write(data)
}

// dispatch runs the handler for req and always produces a reply of req's
// reply type carrying req's request id.
func (c *Connection) dispatch(ctx context.Context, req messages.Request) (reply messages.Reply) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error(fmt.Sprintf("%s - [%s] handler for %s panicked: %v", inboundLogPrefix, c.id, req.Type(), p))
			reply = c.errorReply(req, cadenceerrors.Panic, fmt.Sprint(p))
		}
	}()

	fn, ok := c.handler(req.Type())
	if !ok {
		slog.Warn(fmt.Sprintf("%s - [%s] no handler for inbound %s %d", inboundLogPrefix, c.id, req.Type(), req.RequestID()))
		return c.errorReply(req, cadenceerrors.Generic, fmt.Sprintf("no handler for %s", req.Type()))
	}

	out, err := fn(ctx, req)
	if err != nil {
		return c.errorReply(req, cadenceerrors.TypeOf(err), err.Error())
	}
	if out == nil {
		out = c.emptyReply(req)
	}
	out.SetRequestID(req.RequestID())
	return out
}

func (c *Connection) emptyReply(req messages.Request) messages.Reply {
	msg, err := c.opts.Registry.Create(req.ReplyType())
	if err == nil {
		if reply, ok := msg.(messages.Reply); ok {
			reply.SetRequestID(req.RequestID())
			return reply
		}
	}
	// The catalog pairs every request with a reply, so this only happens
	// with a hand-built registry.
	reply := messages.NewHeartbeatReply()
	reply.SetRequestID(req.RequestID())
	reply.SetError(cadenceerrors.Generic, fmt.Sprintf("no reply type registered for %s", req.Type()), "")
	return reply
}

func (c *Connection) errorReply(req messages.Request, errType cadenceerrors.ErrorType, message string) messages.Reply {
	reply := c.emptyReply(req)
	if reply.ErrorType() == cadenceerrors.None {
		reply.SetError(errType, message, "")
	}
	return reply
}

func (c *Connection) handleHeartbeat(_ context.Context, _ messages.Request) (messages.Reply, error) {
	c.lastInboundBeat.Store(time.Now().UnixNano())
	return messages.NewHeartbeatReply(), nil
}

func (c *Connection) handleTerminate(_ context.Context, req messages.Request) (messages.Reply, error) {
	reason := "terminated by proxy"
	if tr, ok := req.(*messages.TerminateRequest); ok && tr.Reason() != "" {
		reason = "terminated by proxy: " + tr.Reason()
	}
	go c.shutdown(reason, false)
	return messages.NewTerminateReply(), nil
}
