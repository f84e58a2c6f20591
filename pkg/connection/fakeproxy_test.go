package connection

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/morezero/cadence-client/pkg/events"
	"github.com/morezero/cadence-client/pkg/messages"
)

// fakeProxy accepts envelopes like the real proxy: it acknowledges each POST
// with an empty 200 and later POSTs the reply back to the library's listener.
type fakeProxy struct {
	srv *httptest.Server

	mu         sync.Mutex
	libraryURL string
	seen       []messages.Request
	drop       map[messages.MessageType]bool
	answer     map[messages.MessageType]func(messages.Request) messages.Reply
	version    string
}

func newFakeProxy(t *testing.T) *fakeProxy {
	t.Helper()
	p := &fakeProxy{
		drop:    make(map[messages.MessageType]bool),
		answer:  make(map[messages.MessageType]func(messages.Request) messages.Reply),
		version: "1.2.0",
	}
	p.srv = httptest.NewServer(p)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProxy) setDrop(t messages.MessageType, drop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drop[t] = drop
}

func (p *fakeProxy) setAnswer(t messages.MessageType, fn func(messages.Request) messages.Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answer[t] = fn
}

func (p *fakeProxy) requests() []messages.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]messages.Request(nil), p.seen...)
}

func (p *fakeProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r.Body)
	msg, err := messages.Default().Decode(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, ok := msg.(messages.Request)
	if !ok {
		http.Error(w, "not a request", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.seen = append(p.seen, req)
	if ir, ok := req.(*messages.InitializeRequest); ok {
		p.libraryURL = "http://" + net.JoinHostPort(ir.LibraryAddress(), strconv.Itoa(int(ir.LibraryPort())))
	}
	drop := p.drop[req.Type()]
	fn := p.answer[req.Type()]
	target := p.libraryURL
	version := p.version
	p.mu.Unlock()

	w.WriteHeader(http.StatusOK)
	if drop {
		return
	}

	var reply messages.Reply
	if fn != nil {
		reply = fn(req)
	} else {
		created, _ := messages.Default().Create(req.ReplyType())
		reply = created.(messages.Reply)
		if ir, ok := reply.(*messages.InitializeReply); ok {
			ir.SetProxyVersion(version)
		}
	}
	reply.SetRequestID(req.RequestID())
	go postEnvelope(target, reply)
}

func postEnvelope(target string, msg messages.Message) {
	data, err := messages.Encode(msg)
	if err != nil {
		return
	}
	resp, err := http.Post(target, ContentType, bytes.NewReader(data))
	if err != nil {
		return
	}
	resp.Body.Close()
}

// eventLog records the lifecycle states a connection publishes.
type eventLog struct {
	mu     sync.Mutex
	states []string
}

func (l *eventLog) publisher() events.EventPublisher {
	return events.NewCallbackPublisher(func(_ context.Context, e *events.ConnectionEvent) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.states = append(l.states, e.State)
		return nil
	})
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.states...)
}

// connectToFake opens a connection to proxy with heartbeats disabled unless
// mutate turns them on.
func connectToFake(t *testing.T, proxy *fakeProxy, mutate func(*Options)) *Connection {
	t.Helper()
	opts := Options{
		ProxyURL:          proxy.srv.URL,
		Domain:            "test-domain",
		Identity:          "test-client",
		HeartbeatInterval: -1,
		HeartbeatTimeout:  200 * time.Millisecond,
		ConnectTimeout:    5 * time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("connection:fakeproxy_test - New failed: %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connection:fakeproxy_test - Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// senderFunc lets tests stand in for the proxy without any network.
type senderFunc func(ctx context.Context, data []byte) error

func (f senderFunc) Send(ctx context.Context, data []byte) error { return f(ctx, data) }

// newOpenConnection returns a connection already in the Open state whose
// outbound envelopes go to send. Inbound traffic is fed through ServeHTTP.
func newOpenConnection(t *testing.T, send senderFunc) *Connection {
	t.Helper()
	c, err := New(Options{
		Sender:            send,
		HeartbeatInterval: -1,
		HeartbeatTimeout:  50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("connection:fakeproxy_test - New failed: %v", err)
	}
	c.mu.Lock()
	c.state = Open
	c.mu.Unlock()
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// serveEnvelope feeds msg to the connection's inbound handler.
func serveEnvelope(t *testing.T, c *Connection, msg messages.Message) *httptest.ResponseRecorder {
	t.Helper()
	data, err := messages.Encode(msg)
	if err != nil {
		t.Fatalf("connection:fakeproxy_test - encode failed: %v", err)
	}
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data)))
	return rec
}
