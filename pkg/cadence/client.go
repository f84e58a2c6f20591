package cadence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/connection"
	"github.com/morezero/cadence-client/pkg/db"
	"github.com/morezero/cadence-client/pkg/messages"
)

const logPrefix = "cadence:client"

var ErrInvalidArgument = errors.New("invalid argument")

// Caller is the part of a connection the client needs. *connection.Connection
// implements it.
type Caller interface {
	ID() string
	SendRequest(ctx context.Context, req messages.Request, timeout time.Duration) (messages.Reply, error)
	Handle(t messages.MessageType, fn connection.InboundFunc)
}

// Journal records the outcome of each operation. *db.Repository implements it.
type Journal interface {
	RecordOperation(ctx context.Context, params db.RecordOperationParams) (*db.Operation, error)
}

// NoOpJournal discards every record.
type NoOpJournal struct{}

func (NoOpJournal) RecordOperation(context.Context, db.RecordOperationParams) (*db.Operation, error) {
	return nil, nil
}

// Config holds client configuration.
type Config struct {
	// Domain is used by workflow operations that do not name one.
	Domain string
	// RequestTimeout bounds each operation; zero uses the connection default.
	RequestTimeout time.Duration
}

// NewClientParams holds parameters for NewClient.
type NewClientParams struct {
	Conn    Caller
	Journal Journal
	Config  Config
}

// Client issues operations over one proxy connection. Apart from the local
// workflow table it keeps no state; request tracking lives in the connection.
type Client struct {
	conn    Caller
	journal Journal
	config  Config

	mu        sync.RWMutex
	workflows map[string]WorkflowFunc
}

// NewClient creates a Client and installs its inbound workflow handler on the
// connection.
func NewClient(params NewClientParams) *Client {
	j := params.Journal
	if j == nil {
		j = NoOpJournal{}
	}
	c := &Client{
		conn:      params.Conn,
		journal:   j,
		config:    params.Config,
		workflows: make(map[string]WorkflowFunc),
	}
	c.conn.Handle(messages.TypeWorkflowInvokeRequest, c.handleInvoke)
	return c
}

// call sends req and converts an error reply into the error for its kind.
func (c *Client) call(ctx context.Context, op string, req messages.Request) (messages.Reply, error) {
	start := time.Now()
	reply, err := c.conn.SendRequest(ctx, req, c.config.RequestTimeout)
	if err == nil {
		err = reply.Err()
	}
	c.record(ctx, op, req.RequestID(), start, err)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - %s request %d failed: %v", logPrefix, op, req.RequestID(), err))
		return nil, fmt.Errorf("%s - %s: %w", logPrefix, op, err)
	}
	return reply, nil
}

func (c *Client) record(ctx context.Context, op string, requestID int64, start time.Time, err error) {
	params := db.RecordOperationParams{
		ConnectionID: c.conn.ID(),
		Operation:    op,
		RequestID:    requestID,
		ErrorType:    cadenceerrors.TypeOf(err).String(),
		Duration:     time.Since(start),
		StartedAt:    start,
	}
	if err != nil {
		params.Error = err.Error()
	}
	// The journal write must not inherit the caller's cancellation.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if _, jerr := c.journal.RecordOperation(jctx, params); jerr != nil {
		slog.Warn(fmt.Sprintf("%s - failed to journal %s: %v", logPrefix, op, jerr))
	}
}

// replyAs narrows reply to the concrete type the operation expects.
func replyAs[T messages.Reply](reply messages.Reply) (T, error) {
	r, ok := reply.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s - got %s: %w", logPrefix, reply.Type(), connection.ErrUnexpectedReply)
	}
	return r, nil
}

// Ping sends a heartbeat and returns the round-trip time.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := c.call(ctx, "ping", messages.NewHeartbeatRequest()); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Cancel asks the proxy to cancel an in-flight request. The target request's
// own reply still arrives through the normal path.
func (c *Client) Cancel(ctx context.Context, requestID int64) (bool, error) {
	if requestID <= 0 {
		return false, fmt.Errorf("%s - cancel: request id %d: %w", logPrefix, requestID, ErrInvalidArgument)
	}
	req := messages.NewCancelRequest()
	req.SetTargetRequestID(requestID)
	reply, err := c.call(ctx, "cancel", req)
	if err != nil {
		return false, err
	}
	cr, err := replyAs[*messages.CancelReply](reply)
	if err != nil {
		return false, err
	}
	return cr.WasCancelled(), nil
}
