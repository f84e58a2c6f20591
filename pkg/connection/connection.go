// Package connection implements the request/reply engine between this
// library and the cadence proxy: outbound requests are POSTed to the proxy,
// replies and proxy-initiated calls arrive on an embedded HTTP listener, and
// a heartbeat loop watches liveness in both directions.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/events"
	"github.com/morezero/cadence-client/pkg/messages"
	"github.com/morezero/cadence-client/pkg/semver"
)

const logPrefix = "connection:connection"

// LibraryVersion is reported to the proxy in the Initialize request.
const LibraryVersion = "1.0.0"

var (
	ErrNotOpen            = errors.New("connection is not open")
	ErrConnect            = errors.New("failed to establish proxy connection")
	ErrRequestIDExhausted = errors.New("request id space exhausted")
	ErrUnexpectedReply    = errors.New("unexpected reply type")
)

// Options configures a Connection. Zero durations take the defaults below.
type Options struct {
	ProxyURL   string
	ListenAddr string

	Endpoints string
	Domain    string
	Identity  string

	RequestTimeout          time.Duration
	ConnectTimeout          time.Duration
	HeartbeatInterval       time.Duration // negative disables the heartbeat loop
	HeartbeatTimeout        time.Duration
	MaxMissedHeartbeats     int
	InboundHeartbeatTimeout time.Duration // zero disables inbound liveness checks

	// ProxyVersionRange is checked against the version the proxy reports.
	ProxyVersionRange string

	// ProxyBinary, when set, is launched on Connect and killed on Close.
	ProxyBinary string
	ProxyArgs   []string

	Service   string
	Sender    Sender
	Registry  *messages.Registry
	Publisher events.EventPublisher
}

const (
	DefaultRequestTimeout      = 25 * time.Second
	DefaultConnectTimeout      = 10 * time.Second
	DefaultHeartbeatInterval   = 5 * time.Second
	DefaultHeartbeatTimeout    = 2 * time.Second
	DefaultMaxMissedHeartbeats = 2
)

// listenerGrace bounds how long Close waits for proxy calls still in flight.
const listenerGrace = 500 * time.Millisecond

func (o *Options) applyDefaults() {
	if o.ListenAddr == "" {
		o.ListenAddr = "127.0.0.1:0"
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.HeartbeatInterval == 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.HeartbeatTimeout <= 0 {
		o.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if o.MaxMissedHeartbeats <= 0 {
		o.MaxMissedHeartbeats = DefaultMaxMissedHeartbeats
	}
	if o.Identity == "" {
		o.Identity = uuid.NewString()
	}
	if o.Registry == nil {
		o.Registry = messages.Default()
	}
	if o.Publisher == nil {
		o.Publisher = &events.NoOpPublisher{}
	}
	if o.Sender == nil {
		o.Sender = NewHTTPSender(o.ProxyURL, nil)
	}
}

// Connection is one session with the proxy. It is safe for concurrent use.
type Connection struct {
	id      string
	opts    Options
	pending *pendingTable

	mu       sync.Mutex
	state    State
	server   *http.Server
	listener net.Listener
	proxy    *proxyProcess
	hbStop   chan struct{}
	hbDone   chan struct{}
	closed   chan struct{}

	handlersMu sync.RWMutex
	handlers   map[messages.MessageType]InboundFunc

	missed          atomic.Int32
	lastInboundBeat atomic.Int64
}

// New validates opts and returns a Connection in the Created state.
func New(opts Options) (*Connection, error) {
	if opts.ProxyURL == "" && opts.Sender == nil {
		return nil, fmt.Errorf("%s - proxy URL is required", logPrefix)
	}
	if err := semver.ValidateRange(opts.ProxyVersionRange); err != nil {
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	opts.applyDefaults()

	c := &Connection{
		id:       uuid.NewString(),
		opts:     opts,
		pending:  newPendingTable(),
		state:    Created,
		closed:   make(chan struct{}),
		handlers: make(map[messages.MessageType]InboundFunc),
	}
	c.Handle(messages.TypeHeartbeatRequest, c.handleHeartbeat)
	c.Handle(messages.TypeTerminateRequest, c.handleTerminate)
	return c, nil
}

// ID returns the connection's unique id.
func (c *Connection) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the connection reaches Closed.
func (c *Connection) Done() <-chan struct{} { return c.closed }

// Addr returns the inbound listener address, or nil before Connect.
func (c *Connection) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

// Stats returns a snapshot of the connection.
func (c *Connection) Stats() Stats {
	return Stats{
		ConnectionID:     c.id,
		State:            c.State(),
		Pending:          c.pending.len(),
		LastRequestID:    c.pending.lastID(),
		MissedHeartbeats: int(c.missed.Load()),
	}
}

// transition moves to next and publishes a lifecycle event. The caller must
// hold mu; publishing happens after the lock is released via the returned func.
func (c *Connection) transitionLocked(next State, reason string) func() {
	prev := c.state
	c.state = next
	return func() {
		slog.Info(fmt.Sprintf("%s - [%s] %s -> %s %s", logPrefix, c.id, prev, next, reason))
		event := &events.ConnectionEvent{
			ConnectionID:  c.id,
			Service:       c.opts.Service,
			State:         next.String(),
			PreviousState: prev.String(),
			Reason:        reason,
			ProxyURL:      c.opts.ProxyURL,
			Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.opts.Publisher.PublishConnection(ctx, event); err != nil {
			slog.Warn(fmt.Sprintf("%s - [%s] failed to publish %s event: %v", logPrefix, c.id, next, err))
		}
	}
}

func (c *Connection) transition(next State, reason string) {
	c.mu.Lock()
	publish := c.transitionLocked(next, reason)
	c.mu.Unlock()
	publish()
}

// Connect starts the inbound listener, optionally launches the proxy, and
// performs the Initialize and Connect handshakes. On any failure the
// connection ends Closed and the error wraps ErrConnect.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Created {
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("%s - connect called in state %s: %w", logPrefix, st, ErrConnect)
	}
	publish := c.transitionLocked(Connecting, "")
	c.mu.Unlock()
	publish()

	if err := c.handshake(ctx); err != nil {
		c.shutdown(fmt.Sprintf("handshake failed: %v", err), false)
		return fmt.Errorf("%s - %w: %w", logPrefix, ErrConnect, err)
	}

	c.mu.Lock()
	if c.state != Connecting {
		c.mu.Unlock()
		return fmt.Errorf("%s - connection closed during handshake: %w", logPrefix, ErrConnect)
	}
	publish = c.transitionLocked(Open, "")
	if c.opts.HeartbeatInterval > 0 {
		c.hbStop = make(chan struct{})
		c.hbDone = make(chan struct{})
		go c.heartbeatLoop(c.hbStop, c.hbDone)
	}
	c.mu.Unlock()
	publish()
	return nil
}

func (c *Connection) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	addr, err := c.listen()
	if err != nil {
		return err
	}

	if c.opts.ProxyBinary != "" {
		proc, err := startProxy(ctx, c.opts.ProxyBinary, c.opts.ProxyArgs, c.opts.ProxyURL)
		if err != nil {
			return err
		}
		c.mu.Lock()
		if c.state != Connecting {
			c.mu.Unlock()
			proc.stop()
			return fmt.Errorf("%s - connection closed while the proxy started", logPrefix)
		}
		c.proxy = proc
		c.mu.Unlock()
	}

	initReq := messages.NewInitializeRequest()
	initReq.SetLibraryAddress(addr.IP.String())
	initReq.SetLibraryPort(int32(addr.Port))
	initReq.SetLibraryVersion(LibraryVersion)
	reply, err := c.send(ctx, initReq, c.opts.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := reply.Err(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if ir, ok := reply.(*messages.InitializeReply); ok {
		if err := semver.CheckCompatible(ir.ProxyVersion(), c.opts.ProxyVersionRange); err != nil {
			return err
		}
		slog.Info(fmt.Sprintf("%s - [%s] proxy version %q", logPrefix, c.id, ir.ProxyVersion()))
	}

	conn := messages.NewConnectRequest()
	conn.SetEndpoints(c.opts.Endpoints)
	conn.SetDomain(c.opts.Domain)
	conn.SetIdentity(c.opts.Identity)
	reply, err = c.send(ctx, conn, c.opts.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := reply.Err(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *Connection) listen() (*net.TCPAddr, error) {
	ln, err := net.Listen("tcp", c.opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to listen on %s: %w", logPrefix, c.opts.ListenAddr, err)
	}
	srv := &http.Server{Handler: c, ReadHeaderTimeout: 10 * time.Second}

	c.mu.Lock()
	if c.state != Connecting {
		c.mu.Unlock()
		ln.Close()
		return nil, fmt.Errorf("%s - connection closed before listening", logPrefix)
	}
	c.listener = ln
	c.server = srv
	c.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - [%s] listener stopped: %v", logPrefix, c.id, err))
		}
	}()
	slog.Info(fmt.Sprintf("%s - [%s] listening for proxy calls on %s", logPrefix, c.id, ln.Addr()))
	return ln.Addr().(*net.TCPAddr), nil
}

// SendRequest assigns a request id, sends req and waits for its reply, the
// timeout, ctx, or connection close, whichever comes first. A timeout <= 0
// uses the configured request timeout. The reply's error fields are not
// interpreted here.
func (c *Connection) SendRequest(ctx context.Context, req messages.Request, timeout time.Duration) (messages.Reply, error) {
	if st := c.State(); st != Open {
		return nil, fmt.Errorf("%s - send %s in state %s: %w", logPrefix, req.Type(), st, ErrNotOpen)
	}
	return c.send(ctx, req, timeout)
}

func (c *Connection) send(ctx context.Context, req messages.Request, timeout time.Duration) (messages.Reply, error) {
	if timeout <= 0 {
		timeout = c.opts.RequestTimeout
	}
	op, err := c.pending.add(req.ReplyType(), timeout)
	if err != nil {
		return nil, fmt.Errorf("%s - send %s: %w", logPrefix, req.Type(), err)
	}
	req.SetRequestID(op.id)

	data, err := messages.Encode(req)
	if err != nil {
		c.pending.take(op.id)
		return nil, fmt.Errorf("%s - failed to encode %s: %w", logPrefix, req.Type(), err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	err = c.opts.Sender.Send(sendCtx, data)
	cancel()
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return c.abandon(op, c.contextErr(ctx, req, op))
		case errors.Is(err, context.DeadlineExceeded):
			return c.abandon(op, c.timeoutErr(req, op))
		default:
			return c.abandon(op, fmt.Errorf("%s - send %s %d: %w", logPrefix, req.Type(), op.id, err))
		}
	}

	select {
	case res := <-op.done:
		return res.reply, res.err
	case <-timer.C:
		return c.abandon(op, c.timeoutErr(req, op))
	case <-ctx.Done():
		return c.abandon(op, c.contextErr(ctx, req, op))
	}
}

// abandon resolves op with err if nothing else has. Otherwise the winner's
// result is returned.
func (c *Connection) abandon(op *pendingOp, err error) (messages.Reply, error) {
	if _, ok := c.pending.take(op.id); ok {
		return nil, err
	}
	res := <-op.done
	return res.reply, res.err
}

func (c *Connection) timeoutErr(req messages.Request, op *pendingOp) error {
	slog.Warn(fmt.Sprintf("%s - [%s] %s %d timed out after %s", logPrefix, c.id, req.Type(), op.id, op.timeout))
	return cadenceerrors.New(cadenceerrors.Timeout,
		fmt.Sprintf("no reply to %s %d within %s", req.Type(), op.id, op.timeout), "")
}

// contextErr maps a finished caller context onto the error taxonomy while
// keeping the context error in the chain.
func (c *Connection) contextErr(ctx context.Context, req messages.Request, op *pendingOp) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", c.timeoutErr(req, op), ctx.Err())
	}
	return fmt.Errorf("%w: %w",
		cadenceerrors.New(cadenceerrors.Cancelled, fmt.Sprintf("request %d abandoned by caller", op.id), ""),
		ctx.Err())
}

// deliver routes a reply to its pending operation. Replies without one are
// logged and dropped.
func (c *Connection) deliver(reply messages.Reply) {
	id := reply.RequestID()
	op, ok := c.pending.take(id)
	if !ok {
		slog.Warn(fmt.Sprintf("%s - [%s] dropping %s for unknown or resolved request %d", logPrefix, c.id, reply.Type(), id))
		return
	}
	if reply.Type() != op.replyType {
		op.done <- result{err: fmt.Errorf("%s - request %d expected %s, got %s: %w", logPrefix, id, op.replyType, reply.Type(), ErrUnexpectedReply)}
		return
	}
	slog.Debug(fmt.Sprintf("%s - [%s] %s %d resolved in %s", logPrefix, c.id, reply.Type(), id, time.Since(op.created)))
	op.done <- result{reply: reply}
}

// Cancel asks the proxy to abandon request id. The original request stays
// pending; its completion still arrives as a normal reply.
func (c *Connection) Cancel(ctx context.Context, id int64) (bool, error) {
	req := messages.NewCancelRequest()
	req.SetTargetRequestID(id)
	reply, err := c.SendRequest(ctx, req, 0)
	if err != nil {
		return false, err
	}
	if err := reply.Err(); err != nil {
		return false, err
	}
	cr, ok := reply.(*messages.CancelReply)
	return ok && cr.WasCancelled(), nil
}

// Close sends Terminate to the proxy, stops the heartbeat, resolves every
// pending request with a Terminated error, then stops the listener and kills
// a launched proxy. It is idempotent and returns once the connection is Closed.
func (c *Connection) Close() error {
	c.shutdown("closed by client", true)
	return nil
}

func (c *Connection) shutdown(reason string, notifyProxy bool) {
	c.mu.Lock()
	if c.state == Closing || c.state == Closed {
		c.mu.Unlock()
		<-c.closed
		return
	}
	wasOpen := c.state == Open
	publish := c.transitionLocked(Closing, reason)
	hbStop, hbDone := c.hbStop, c.hbDone
	c.hbStop, c.hbDone = nil, nil
	srv, proc := c.server, c.proxy
	c.mu.Unlock()
	publish()

	if notifyProxy && wasOpen {
		term := messages.NewTerminateRequest()
		term.SetReason(reason)
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.HeartbeatTimeout)
		if _, err := c.send(ctx, term, c.opts.HeartbeatTimeout); err != nil {
			slog.Debug(fmt.Sprintf("%s - [%s] terminate not acknowledged: %v", logPrefix, c.id, err))
		}
		cancel()
	}

	if hbStop != nil {
		close(hbStop)
		<-hbDone
	}

	ops := c.pending.drain()
	for _, op := range ops {
		op.done <- result{err: cadenceerrors.New(cadenceerrors.Terminated,
			fmt.Sprintf("connection closed: %s", reason), "")}
	}
	if len(ops) > 0 {
		slog.Info(fmt.Sprintf("%s - [%s] terminated %d pending requests", logPrefix, c.id, len(ops)))
	}

	if srv != nil {
		c.stopListener(srv, notifyProxy)
	}

	if proc != nil {
		proc.stop()
	}

	c.transition(Closed, reason)
	close(c.closed)
}

// stopListener lets in-flight proxy calls finish for at most listenerGrace
// on a client close. After liveness loss or a failed handshake the listener
// is closed at once.
func (c *Connection) stopListener(srv *http.Server, graceful bool) {
	if graceful {
		ctx, cancel := context.WithTimeout(context.Background(), listenerGrace)
		defer cancel()
		err := srv.Shutdown(ctx)
		if err == nil {
			return
		}
		slog.Debug(fmt.Sprintf("%s - [%s] listener shutdown: %v", logPrefix, c.id, err))
	}
	if err := srv.Close(); err != nil {
		slog.Warn(fmt.Sprintf("%s - [%s] listener close: %v", logPrefix, c.id, err))
	}
}
