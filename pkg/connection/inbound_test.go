package connection

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/messages"
	"github.com/morezero/cadence-client/pkg/wire"
)

const inboundTestPrefix = "connection:inbound_test"

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) messages.Reply {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - status = %d, body %q", inboundTestPrefix, rec.Code, rec.Body.String())
	}
	msg, err := messages.Default().Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("%s - reply decode failed: %v", inboundTestPrefix, err)
	}
	reply, ok := msg.(messages.Reply)
	if !ok {
		t.Fatalf("%s - response is %s, not a reply", inboundTestPrefix, msg.Type())
	}
	return reply
}

func TestInbound_RequestsAreAnswered(t *testing.T) {
	c := newOpenConnection(t, func(context.Context, []byte) error { return nil })
	c.Handle(messages.TypeWorkflowInvokeRequest, func(_ context.Context, req messages.Request) (messages.Reply, error) {
		invoke := req.(*messages.WorkflowInvokeRequest)
		switch invoke.Name() {
		case "fails":
			return nil, cadenceerrors.New(cadenceerrors.Custom, "rejected by workflow", "")
		case "crashes":
			panic("nil map write")
		}
		reply := messages.NewWorkflowInvokeReply()
		reply.SetResult([]byte(`"done"`))
		return reply, nil
	})

	invoke := func(name string) messages.Request {
		req := messages.NewWorkflowInvokeRequest()
		req.SetName(name)
		return req
	}

	tests := []struct {
		name      string
		req       messages.Request
		wantType  messages.MessageType
		wantError cadenceerrors.ErrorType
	}{
		{"heartbeat", messages.NewHeartbeatRequest(), messages.TypeHeartbeatReply, cadenceerrors.None},
		{"no handler", messages.NewDomainRegisterRequest(), messages.TypeDomainRegisterReply, cadenceerrors.Generic},
		{"handler ok", invoke("ok"), messages.TypeWorkflowInvokeReply, cadenceerrors.None},
		{"handler error", invoke("fails"), messages.TypeWorkflowInvokeReply, cadenceerrors.Custom},
		{"handler panic", invoke("crashes"), messages.TypeWorkflowInvokeReply, cadenceerrors.Panic},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := int64(1000 + i)
			tt.req.SetRequestID(id)
			reply := decodeReply(t, serveEnvelope(t, c, tt.req))

			if reply.Type() != tt.wantType {
				t.Errorf("%s - reply type = %s, want %s", inboundTestPrefix, reply.Type(), tt.wantType)
			}
			if reply.RequestID() != id {
				t.Errorf("%s - reply id = %d, want %d", inboundTestPrefix, reply.RequestID(), id)
			}
			if reply.ErrorType() != tt.wantError {
				t.Errorf("%s - error type = %s, want %s", inboundTestPrefix, reply.ErrorType(), tt.wantError)
			}
			if err := messages.ValidateReply(reply); err != nil {
				t.Errorf("%s - %v", inboundTestPrefix, err)
			}
		})
	}
}

func TestInbound_StaleReplyIsDropped(t *testing.T) {
	c := newOpenConnection(t, func(context.Context, []byte) error { return nil })

	stale := messages.NewDomainDescribeReply()
	stale.SetRequestID(999)
	rec := serveEnvelope(t, c, stale)
	if rec.Code != http.StatusOK {
		t.Errorf("%s - stale reply status = %d, want 200", inboundTestPrefix, rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("%s - reply acknowledgement should be empty", inboundTestPrefix)
	}
}

func TestInbound_BadInput(t *testing.T) {
	c := newOpenConnection(t, func(context.Context, []byte) error { return nil })

	good, _ := messages.Encode(messages.NewHeartbeatRequest())
	unknown, _ := wire.Encode(wire.NewEnvelope(4242))

	tests := []struct {
		name   string
		method string
		body   []byte
		want   int
	}{
		{"wrong method", http.MethodGet, nil, http.StatusMethodNotAllowed},
		{"garbage", http.MethodPost, []byte("not an envelope"), http.StatusBadRequest},
		{"trailing byte", http.MethodPost, append(append([]byte(nil), good...), 0), http.StatusBadRequest},
		{"unknown type", http.MethodPost, unknown, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c.ServeHTTP(rec, httptest.NewRequest(tt.method, "/", bytes.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("%s - status = %d, want %d", inboundTestPrefix, rec.Code, tt.want)
			}
		})
	}
	if c.State() != Open {
		t.Errorf("%s - bad input must not affect the connection, state = %s", inboundTestPrefix, c.State())
	}
}

func TestInbound_Echo(t *testing.T) {
	c := newOpenConnection(t, func(context.Context, []byte) error { return nil })

	env := wire.NewEnvelope(4242)
	env.Properties.SetString("Hello", "World")
	env.Properties.SetNull("Nothing")
	env.SubMessages = []*wire.Envelope{wire.NewEnvelope(7)}
	data, err := wire.Encode(env)
	if err != nil {
		t.Fatalf("%s - encode failed: %v", inboundTestPrefix, err)
	}

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, EchoPath, bytes.NewReader(data)))
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - echo status = %d", inboundTestPrefix, rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Errorf("%s - echo changed the envelope", inboundTestPrefix)
	}
}

func TestInbound_TerminateClosesConnection(t *testing.T) {
	c := newOpenConnection(t, func(context.Context, []byte) error { return nil })

	term := messages.NewTerminateRequest()
	term.SetRequestID(5)
	term.SetReason("proxy shutting down")
	reply := decodeReply(t, serveEnvelope(t, c, term))
	if reply.Type() != messages.TypeTerminateReply || reply.ErrorType() != cadenceerrors.None {
		t.Errorf("%s - terminate reply = %s %s", inboundTestPrefix, reply.Type(), reply.ErrorType())
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("%s - connection did not close after inbound terminate", inboundTestPrefix)
	}
	if _, err := c.SendRequest(context.Background(), messages.NewHeartbeatRequest(), time.Second); !errors.Is(err, ErrNotOpen) {
		t.Errorf("%s - send after terminate = %v", inboundTestPrefix, err)
	}
}

func TestHTTPSender(t *testing.T) {
	var gotType string
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer failing.Close()

	if err := NewHTTPSender(ok.URL, nil).Send(context.Background(), []byte{1}); err != nil {
		t.Errorf("%s - send failed: %v", inboundTestPrefix, err)
	}
	if gotType != ContentType {
		t.Errorf("%s - content type = %q", inboundTestPrefix, gotType)
	}
	if err := NewHTTPSender(failing.URL, nil).Send(context.Background(), []byte{1}); err == nil {
		t.Errorf("%s - expected error for 500", inboundTestPrefix)
	}
}
