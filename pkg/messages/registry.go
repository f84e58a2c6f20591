package messages

import (
	"errors"
	"fmt"
	"sort"

	"github.com/morezero/cadence-client/pkg/wire"
)

const logPrefix = "messages:registry"

var ErrUnknownMessageType = errors.New("unknown message type")

// Factory builds an empty message of one catalog type.
type Factory func() Message

// Entry binds a type code to its factory.
type Entry struct {
	Type MessageType
	New  Factory
}

// Registry maps type codes to factories. It is built once and read-only
// afterwards, so it is safe for concurrent use without locking.
type Registry struct {
	byType map[MessageType]Factory
	byName map[string]MessageType
}

// NewRegistry validates entries and builds a registry. Duplicate codes, the
// zero code, and factories whose product reports a different code are rejected.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		byType: make(map[MessageType]Factory, len(entries)),
		byName: make(map[string]MessageType, len(entries)),
	}
	for _, e := range entries {
		if e.Type == TypeUnspecified {
			return nil, fmt.Errorf("%s - type code 0 cannot be registered", logPrefix)
		}
		if e.New == nil {
			return nil, fmt.Errorf("%s - nil factory for %s", logPrefix, e.Type)
		}
		if _, dup := r.byType[e.Type]; dup {
			return nil, fmt.Errorf("%s - duplicate registration for %s", logPrefix, e.Type)
		}
		if got := e.New().Type(); got != e.Type {
			return nil, fmt.Errorf("%s - factory for %s builds %s", logPrefix, e.Type, got)
		}
		r.byType[e.Type] = e.New
		r.byName[e.Type.String()] = e.Type
	}
	return r, nil
}

// Create returns a fresh, empty message for t.
func (r *Registry) Create(t MessageType) (Message, error) {
	f, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("%s - create %s: %w", logPrefix, t, ErrUnknownMessageType)
	}
	return f(), nil
}

// TypeCodeOf returns the code registered under a type name such as "ConnectRequest".
func (r *Registry) TypeCodeOf(name string) (MessageType, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Types returns the registered codes in ascending order.
func (r *Registry) Types() []MessageType {
	out := make([]MessageType, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Wrap binds a decoded envelope to the concrete type named by its code.
func (r *Registry) Wrap(env *wire.Envelope) (Message, error) {
	msg, err := r.Create(MessageType(env.TypeCode))
	if err != nil {
		return nil, err
	}
	msg.base().env = env
	return msg, nil
}

// Decode parses bytes and returns the concrete message.
func (r *Registry) Decode(data []byte) (Message, error) {
	env, err := wire.Decode(data)
	if err != nil {
		return nil, err
	}
	return r.Wrap(env)
}

// DecodeAs parses bytes produced with wire.IgnoreTypeCode and binds them to
// the expected type. The wire type code is not consulted.
func (r *Registry) DecodeAs(data []byte, expected MessageType) (Message, error) {
	env, err := wire.Decode(data, wire.IgnoreTypeCode())
	if err != nil {
		return nil, err
	}
	env.TypeCode = uint32(expected)
	return r.Wrap(env)
}

// Encode serializes any message.
func Encode(msg Message, opts ...wire.Option) ([]byte, error) {
	return wire.Encode(msg.Envelope(), opts...)
}

// Catalog lists every message type this library understands.
func Catalog() []Entry {
	return []Entry{
		{TypeInitializeRequest, func() Message { return NewInitializeRequest() }},
		{TypeInitializeReply, func() Message { return NewInitializeReply() }},
		{TypeConnectRequest, func() Message { return NewConnectRequest() }},
		{TypeConnectReply, func() Message { return NewConnectReply() }},
		{TypeHeartbeatRequest, func() Message { return NewHeartbeatRequest() }},
		{TypeHeartbeatReply, func() Message { return NewHeartbeatReply() }},
		{TypeTerminateRequest, func() Message { return NewTerminateRequest() }},
		{TypeTerminateReply, func() Message { return NewTerminateReply() }},
		{TypeCancelRequest, func() Message { return NewCancelRequest() }},
		{TypeCancelReply, func() Message { return NewCancelReply() }},
		{TypeDomainRegisterRequest, func() Message { return NewDomainRegisterRequest() }},
		{TypeDomainRegisterReply, func() Message { return NewDomainRegisterReply() }},
		{TypeDomainDescribeRequest, func() Message { return NewDomainDescribeRequest() }},
		{TypeDomainDescribeReply, func() Message { return NewDomainDescribeReply() }},
		{TypeDomainUpdateRequest, func() Message { return NewDomainUpdateRequest() }},
		{TypeDomainUpdateReply, func() Message { return NewDomainUpdateReply() }},
		{TypeWorkflowRegisterRequest, func() Message { return NewWorkflowRegisterRequest() }},
		{TypeWorkflowRegisterReply, func() Message { return NewWorkflowRegisterReply() }},
		{TypeWorkflowExecuteRequest, func() Message { return NewWorkflowExecuteRequest() }},
		{TypeWorkflowExecuteReply, func() Message { return NewWorkflowExecuteReply() }},
		{TypeWorkflowInvokeRequest, func() Message { return NewWorkflowInvokeRequest() }},
		{TypeWorkflowInvokeReply, func() Message { return NewWorkflowInvokeReply() }},
		{TypeArgument, func() Message { return &Argument{newProxyMessage(TypeArgument)} }},
	}
}

var defaultRegistry = mustRegistry(Catalog())

func mustRegistry(entries []Entry) *Registry {
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry built from Catalog.
func Default() *Registry { return defaultRegistry }
