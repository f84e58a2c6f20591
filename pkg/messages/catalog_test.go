package messages

import (
	"errors"
	"testing"
	"time"

	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/wire"
)

const catalogTestPrefix = "messages:catalog_test"

func TestReply_ErrorFields(t *testing.T) {
	tests := []struct {
		name     string
		errType  cadenceerrors.ErrorType
		message  string
		wantMsg  string
		sentinel error
	}{
		{"none", cadenceerrors.None, "ignored", "", nil},
		{"generic", cadenceerrors.Generic, "boom", "boom", cadenceerrors.ErrGeneric},
		{"timeout without message", cadenceerrors.Timeout, "", "timeout", cadenceerrors.ErrTimeout},
		{"terminated", cadenceerrors.Terminated, "gone", "gone", cadenceerrors.ErrTerminated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := NewDomainDescribeReply()
			reply.SetError(tt.errType, tt.message, "")

			if err := ValidateReply(reply); err != nil {
				t.Errorf("%s - invariant broken: %v", catalogTestPrefix, err)
			}
			if reply.ErrorType() != tt.errType {
				t.Errorf("%s - ErrorType = %v, want %v", catalogTestPrefix, reply.ErrorType(), tt.errType)
			}
			if reply.ErrorMessage() != tt.wantMsg {
				t.Errorf("%s - Error = %q, want %q", catalogTestPrefix, reply.ErrorMessage(), tt.wantMsg)
			}
			err := reply.Err()
			if tt.sentinel == nil {
				if err != nil {
					t.Errorf("%s - expected nil error, got %v", catalogTestPrefix, err)
				}
				return
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("%s - Err() = %v, want %v", catalogTestPrefix, err, tt.sentinel)
			}
		})
	}
}

func TestReply_NoneIsNullOnWire(t *testing.T) {
	reply := NewConnectReply()
	reply.SetError(cadenceerrors.Generic, "first", "")
	reply.SetError(cadenceerrors.None, "", "")

	p := reply.Envelope().Properties
	for _, key := range []string{ErrorTypeKey, ErrorKey, ErrorDetailsKey} {
		if !p.Has(key) {
			t.Errorf("%s - %s should be present as null", catalogTestPrefix, key)
		}
		if _, ok := p.Get(key); ok {
			t.Errorf("%s - %s should be null", catalogTestPrefix, key)
		}
	}
}

func TestReply_InconsistentFromWire(t *testing.T) {
	reply := NewConnectReply()
	reply.Envelope().Properties.SetString(ErrorKey, "stray")
	if err := ValidateReply(reply); err == nil {
		t.Errorf("%s - expected invariant violation", catalogTestPrefix)
	}
	if !errors.Is(reply.Err(), cadenceerrors.ErrGeneric) {
		t.Errorf("%s - stray Error should surface as generic, got %v", catalogTestPrefix, reply.Err())
	}

	reply = NewConnectReply()
	reply.Envelope().Properties.SetString(ErrorTypeKey, "martian")
	reply.Envelope().Properties.SetString(ErrorKey, "odd")
	if reply.ErrorType() != cadenceerrors.Generic {
		t.Errorf("%s - unknown ErrorType should read as generic", catalogTestPrefix)
	}
}

func TestWorkflowExecuteRequest_ArgsAndOptions(t *testing.T) {
	req := NewWorkflowExecuteRequest()
	req.SetRequestID(9)
	req.SetDomain("orders")
	req.SetName("ship")
	opts := &StartWorkflowOptions{
		ID:                           "order-1",
		TaskList:                     "shipping",
		ExecutionStartToCloseTimeout: time.Hour,
		WorkflowIDReusePolicy:        RejectDuplicate,
	}
	if err := req.SetOptions(opts); err != nil {
		t.Fatalf("%s - SetOptions failed: %v", catalogTestPrefix, err)
	}
	if err := req.AddArg("qty", 3); err != nil {
		t.Fatalf("%s - AddArg failed: %v", catalogTestPrefix, err)
	}
	if err := req.AddArg("sku", "A-1"); err != nil {
		t.Fatalf("%s - AddArg failed: %v", catalogTestPrefix, err)
	}

	data, err := Encode(req)
	if err != nil {
		t.Fatalf("%s - encode failed: %v", catalogTestPrefix, err)
	}
	msg, err := Default().Decode(data)
	if err != nil {
		t.Fatalf("%s - decode failed: %v", catalogTestPrefix, err)
	}
	got := msg.(*WorkflowExecuteRequest)

	gotOpts, err := got.Options()
	if err != nil || gotOpts == nil || *gotOpts != *opts {
		t.Errorf("%s - Options = (%+v, %v), want %+v", catalogTestPrefix, gotOpts, err, opts)
	}
	args, err := got.Args()
	if err != nil || len(args) != 2 {
		t.Fatalf("%s - Args = (%v, %v)", catalogTestPrefix, args, err)
	}
	var qty int
	if err := args[0].Decode(&qty); err != nil || args[0].Name() != "qty" || qty != 3 {
		t.Errorf("%s - first arg = %s %d (%v)", catalogTestPrefix, args[0].Name(), qty, err)
	}
	m, err := got.ArgsMap()
	if err != nil || string(m["sku"]) != `"A-1"` {
		t.Errorf("%s - ArgsMap = (%v, %v)", catalogTestPrefix, m, err)
	}
}

func TestWorkflowExecuteRequest_RejectsForeignSubEnvelope(t *testing.T) {
	req := NewWorkflowExecuteRequest()
	req.Envelope().SubMessages = append(req.Envelope().SubMessages, wire.NewEnvelope(uint32(TypeHeartbeatRequest)))
	if _, err := req.Args(); err == nil {
		t.Errorf("%s - expected error for non-argument sub-envelope", catalogTestPrefix)
	}
	if opts, err := req.Options(); opts != nil || err != nil {
		t.Errorf("%s - unset options should read as nil, got (%v, %v)", catalogTestPrefix, opts, err)
	}
}

func TestDomainDescribeReply_Status(t *testing.T) {
	reply := NewDomainDescribeReply()
	reply.SetDomainInfoStatus(DomainDeprecated)
	if reply.DomainInfoStatus() != DomainDeprecated {
		t.Errorf("%s - status = %q", catalogTestPrefix, reply.DomainInfoStatus())
	}
	reply.Envelope().Properties.SetString("DomainInfoStatus", "ARCHIVED")
	if reply.DomainInfoStatus() != "" {
		t.Errorf("%s - unknown status should read as empty", catalogTestPrefix)
	}
}

func TestWorkflowIDReusePolicy(t *testing.T) {
	for p, want := range map[WorkflowIDReusePolicy]string{
		AllowDuplicateFailedOnly: "AllowDuplicateFailedOnly",
		AllowDuplicate:           "AllowDuplicate",
		RejectDuplicate:          "RejectDuplicate",
	} {
		if p.String() != want || !p.Valid() {
			t.Errorf("%s - %d = %s valid=%v", catalogTestPrefix, int(p), p, p.Valid())
		}
	}
	if WorkflowIDReusePolicy(3).Valid() {
		t.Errorf("%s - 3 should be invalid", catalogTestPrefix)
	}
}
