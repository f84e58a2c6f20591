package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/morezero/cadence-client/pkg/cadence"
	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/connection"
)

const logPrefix = "control:dispatcher"

// Error codes returned in ErrorDetail.Code besides the upper-cased error types.
const (
	CodeMethodNotFound  = "METHOD_NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnavailable     = "UNAVAILABLE"
)

// Operations is the subset of the façade client reachable over control.
type Operations interface {
	Ping(ctx context.Context) (time.Duration, error)
	RegisterDomain(ctx context.Context, input *cadence.RegisterDomainInput) error
	DescribeDomain(ctx context.Context, name string) (*cadence.DomainDescription, error)
	UpdateDomain(ctx context.Context, input *cadence.UpdateDomainInput) error
	Cancel(ctx context.Context, requestID int64) (bool, error)
}

// Dispatcher routes control requests to client operations.
type Dispatcher struct {
	ops Operations
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(ops Operations) *Dispatcher {
	return &Dispatcher{ops: ops}
}

// Dispatch routes a request to the matching operation and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	switch req.Method {
	case "ping":
		return d.handlePing(ctx, req)
	case "domain.register":
		return d.handleRegisterDomain(ctx, req)
	case "domain.describe":
		return d.handleDescribeDomain(ctx, req)
	case "domain.update":
		return d.handleUpdateDomain(ctx, req)
	case "cancel":
		return d.handleCancel(ctx, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (d *Dispatcher) handlePing(ctx context.Context, req *Request) *Response {
	rtt, err := d.ops.Ping(ctx)
	if err != nil {
		return operationErrorToResponse(req.ID, err)
	}
	return &Response{ID: req.ID, Ok: true, Result: &PingResult{RoundTripMs: rtt.Milliseconds()}}
}

func (d *Dispatcher) handleRegisterDomain(ctx context.Context, req *Request) *Response {
	var input cadence.RegisterDomainInput
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse domain.register params", false)
	}
	if err := d.ops.RegisterDomain(ctx, &input); err != nil {
		return operationErrorToResponse(req.ID, err)
	}
	return &Response{ID: req.ID, Ok: true}
}

func (d *Dispatcher) handleDescribeDomain(ctx context.Context, req *Request) *Response {
	var params NameParams
	if err := decodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse domain.describe params", false)
	}
	desc, err := d.ops.DescribeDomain(ctx, params.Name)
	if err != nil {
		return operationErrorToResponse(req.ID, err)
	}
	return &Response{ID: req.ID, Ok: true, Result: desc}
}

func (d *Dispatcher) handleUpdateDomain(ctx context.Context, req *Request) *Response {
	var input cadence.UpdateDomainInput
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse domain.update params", false)
	}
	if err := d.ops.UpdateDomain(ctx, &input); err != nil {
		return operationErrorToResponse(req.ID, err)
	}
	return &Response{ID: req.ID, Ok: true}
}

func (d *Dispatcher) handleCancel(ctx context.Context, req *Request) *Response {
	var params CancelParams
	if err := decodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse cancel params", false)
	}
	ok, err := d.ops.Cancel(ctx, params.RequestID)
	if err != nil {
		return operationErrorToResponse(req.ID, err)
	}
	return &Response{ID: req.ID, Ok: true, Result: &CancelResult{Cancelled: ok}}
}

// --- helpers ---

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing params")
	}
	return json.Unmarshal(raw, v)
}

func errorResponse(id, code, message string, retryable bool) *Response {
	return &Response{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

// operationErrorToResponse maps a client error to a response. Proxy errors use
// their error type as the code; timeouts, liveness loss and a closed
// connection are retryable.
func operationErrorToResponse(id string, err error) *Response {
	switch {
	case errors.Is(err, cadence.ErrInvalidArgument):
		return errorResponse(id, CodeInvalidArgument, err.Error(), false)
	case errors.Is(err, connection.ErrNotOpen):
		return errorResponse(id, CodeUnavailable, err.Error(), true)
	}

	var ce *cadenceerrors.CadenceError
	if !errors.As(err, &ce) {
		return errorResponse(id, "GENERIC", err.Error(), false)
	}
	resp := errorResponse(id, strings.ToUpper(ce.Type.String()), ce.Message, ce.Type == cadenceerrors.Timeout || ce.Type == cadenceerrors.Terminated)
	resp.Error.Details = ce.Details
	return resp
}
