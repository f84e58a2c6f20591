package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/morezero/cadence-client/pkg/cadence"
	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/connection"
	"github.com/morezero/cadence-client/pkg/messages"
)

const dispatcherTestPrefix = "control:dispatcher_test"

// fakeOps records the last input and returns err from every operation.
type fakeOps struct {
	err        error
	registered *cadence.RegisterDomainInput
	updated    *cadence.UpdateDomainInput
	described  string
	cancelled  int64
}

func (f *fakeOps) Ping(context.Context) (time.Duration, error) {
	return 3 * time.Millisecond, f.err
}

func (f *fakeOps) RegisterDomain(_ context.Context, input *cadence.RegisterDomainInput) error {
	f.registered = input
	return f.err
}

func (f *fakeOps) DescribeDomain(_ context.Context, name string) (*cadence.DomainDescription, error) {
	f.described = name
	if f.err != nil {
		return nil, f.err
	}
	return &cadence.DomainDescription{Name: name, Status: messages.DomainRegistered, RetentionDays: 7}, nil
}

func (f *fakeOps) UpdateDomain(_ context.Context, input *cadence.UpdateDomainInput) error {
	f.updated = input
	return f.err
}

func (f *fakeOps) Cancel(_ context.Context, requestID int64) (bool, error) {
	f.cancelled = requestID
	return f.err == nil, f.err
}

func TestDispatch_UnknownMethod(t *testing.T) {
	disp := NewDispatcher(&fakeOps{})

	for _, id := range []string{"req-1", "unique-abc-123", ""} {
		resp := disp.Dispatch(context.Background(), &Request{ID: id, Method: "workflow.start"})
		if resp.Ok {
			t.Errorf("%s - expected Ok=false for unknown method", dispatcherTestPrefix)
		}
		if resp.ID != id {
			t.Errorf("%s - expected ID=%q, got %q", dispatcherTestPrefix, id, resp.ID)
		}
		if resp.Error == nil || resp.Error.Code != CodeMethodNotFound || resp.Error.Retryable {
			t.Errorf("%s - error = %+v, want non-retryable METHOD_NOT_FOUND", dispatcherTestPrefix, resp.Error)
		}
	}
}

func TestDispatch_Routes(t *testing.T) {
	ops := &fakeOps{}
	disp := NewDispatcher(ops)
	ctx := context.Background()

	resp := disp.Dispatch(ctx, &Request{ID: "1", Method: "ping"})
	if !resp.Ok || resp.Result.(*PingResult).RoundTripMs != 3 {
		t.Errorf("%s - ping response = %+v", dispatcherTestPrefix, resp)
	}

	resp = disp.Dispatch(ctx, &Request{ID: "2", Method: "domain.register",
		Params: json.RawMessage(`{"name":"orders","ownerEmail":"ops@example.com","retentionDays":14}`)})
	if !resp.Ok {
		t.Fatalf("%s - register response = %+v", dispatcherTestPrefix, resp.Error)
	}
	if ops.registered.Name != "orders" || ops.registered.OwnerEmail != "ops@example.com" || ops.registered.RetentionDays != 14 {
		t.Errorf("%s - register input = %+v", dispatcherTestPrefix, ops.registered)
	}

	resp = disp.Dispatch(ctx, &Request{ID: "3", Method: "domain.describe", Params: json.RawMessage(`{"name":"orders"}`)})
	desc, ok := resp.Result.(*cadence.DomainDescription)
	if !resp.Ok || !ok || desc.Name != "orders" || ops.described != "orders" {
		t.Errorf("%s - describe response = %+v", dispatcherTestPrefix, resp)
	}

	resp = disp.Dispatch(ctx, &Request{ID: "4", Method: "domain.update", Params: json.RawMessage(`{"name":"orders","emitMetrics":true}`)})
	if !resp.Ok || ops.updated == nil || !ops.updated.EmitMetrics {
		t.Errorf("%s - update response = %+v, input = %+v", dispatcherTestPrefix, resp, ops.updated)
	}

	resp = disp.Dispatch(ctx, &Request{ID: "5", Method: "cancel", Params: json.RawMessage(`{"requestId":42}`)})
	if !resp.Ok || !resp.Result.(*CancelResult).Cancelled || ops.cancelled != 42 {
		t.Errorf("%s - cancel response = %+v", dispatcherTestPrefix, resp)
	}
}

func TestDispatch_BadParams(t *testing.T) {
	disp := NewDispatcher(&fakeOps{})
	for _, method := range []string{"domain.register", "domain.describe", "domain.update", "cancel"} {
		for _, params := range []json.RawMessage{nil, json.RawMessage(`{"name":`)} {
			resp := disp.Dispatch(context.Background(), &Request{ID: "x", Method: method, Params: params})
			if resp.Ok || resp.Error.Code != CodeInvalidArgument {
				t.Errorf("%s - %s with params %q: response = %+v", dispatcherTestPrefix, method, params, resp)
			}
		}
	}
}

func TestDispatch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
		wantDetails   string
	}{
		{"generic", cadenceerrors.New(cadenceerrors.Generic, "no such domain", "trace"), "GENERIC", false, "trace"},
		{"custom", cadenceerrors.New(cadenceerrors.Custom, "refused", ""), "CUSTOM", false, ""},
		{"timeout", cadenceerrors.New(cadenceerrors.Timeout, "", ""), "TIMEOUT", true, ""},
		{"terminated", cadenceerrors.New(cadenceerrors.Terminated, "", ""), "TERMINATED", true, ""},
		{"cancelled", cadenceerrors.New(cadenceerrors.Cancelled, "", ""), "CANCELLED", false, ""},
		{"wrapped panic", fmt.Errorf("cadence:client - domain.describe: %w", cadenceerrors.New(cadenceerrors.Panic, "nil map", "")), "PANIC", false, ""},
		{"invalid argument", fmt.Errorf("name: %w", cadence.ErrInvalidArgument), CodeInvalidArgument, false, ""},
		{"not open", fmt.Errorf("send: %w", connection.ErrNotOpen), CodeUnavailable, true, ""},
		{"foreign", errors.New("disk on fire"), "GENERIC", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disp := NewDispatcher(&fakeOps{err: tt.err})
			resp := disp.Dispatch(context.Background(), &Request{ID: "e", Method: "domain.describe", Params: json.RawMessage(`{"name":"orders"}`)})
			if resp.Ok || resp.Error == nil {
				t.Fatalf("%s - expected error response, got %+v", dispatcherTestPrefix, resp)
			}
			if resp.Error.Code != tt.wantCode || resp.Error.Retryable != tt.wantRetryable || resp.Error.Details != tt.wantDetails {
				t.Errorf("%s - error = %+v, want code %s retryable %v details %q",
					dispatcherTestPrefix, resp.Error, tt.wantCode, tt.wantRetryable, tt.wantDetails)
			}
		})
	}
}
