package connection

import (
	"math"
	"sync"
	"time"

	"github.com/morezero/cadence-client/pkg/messages"
)

type result struct {
	reply messages.Reply
	err   error
}

// pendingOp tracks one in-flight request. Whoever removes it from the table
// owns its resolution and must write exactly one result to done.
type pendingOp struct {
	id        int64
	done      chan result
	replyType messages.MessageType
	created   time.Time
	timeout   time.Duration
}

// pendingTable is the only state shared between callers, the inbound
// listener and the heartbeat loop. Every operation holds mu.
type pendingTable struct {
	mu     sync.Mutex
	nextID int64
	ops    map[int64]*pendingOp
	closed bool
}

func newPendingTable() *pendingTable {
	return &pendingTable{ops: make(map[int64]*pendingOp)}
}

// add assigns the next request id and registers the operation.
func (t *pendingTable) add(replyType messages.MessageType, timeout time.Duration) (*pendingOp, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrNotOpen
	}
	if t.nextID == math.MaxInt64 {
		return nil, ErrRequestIDExhausted
	}
	t.nextID++
	op := &pendingOp{
		id:        t.nextID,
		done:      make(chan result, 1),
		replyType: replyType,
		created:   time.Now(),
		timeout:   timeout,
	}
	t.ops[op.id] = op
	return op, nil
}

// take removes and returns the operation for id.
func (t *pendingTable) take(id int64) (*pendingOp, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.ops[id]
	if ok {
		delete(t.ops, id)
	}
	return op, ok
}

// drain closes the table to new operations and returns everything still pending.
func (t *pendingTable) drain() []*pendingOp {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	out := make([]*pendingOp, 0, len(t.ops))
	for id, op := range t.ops {
		out = append(out, op)
		delete(t.ops, id)
	}
	return out
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops)
}

func (t *pendingTable) lastID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextID
}
