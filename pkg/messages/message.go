package messages

import (
	"fmt"
	"time"

	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/wire"
)

// Property keys shared by every request and reply.
const (
	RequestIDKey    = "RequestId"
	ErrorTypeKey    = "ErrorType"
	ErrorKey        = "Error"
	ErrorDetailsKey = "ErrorDetails"
)

// Message is implemented only by the catalog types in this package, which
// makes the catalog a closed set.
type Message interface {
	Type() MessageType
	Envelope() *wire.Envelope
	base() *ProxyMessage
}

// Request is a message that expects a reply of a fixed type.
type Request interface {
	Message
	RequestID() int64
	SetRequestID(id int64)
	ReplyType() MessageType
}

// Reply answers the request with the same RequestID.
type Reply interface {
	Message
	RequestID() int64
	SetRequestID(id int64)
	ErrorType() cadenceerrors.ErrorType
	ErrorMessage() string
	ErrorDetails() string
	SetError(errType cadenceerrors.ErrorType, message, details string)
	Err() error
}

// ProxyMessage is a typed view over an envelope. Accessors on the catalog
// types read and write the underlying property bag.
type ProxyMessage struct {
	env *wire.Envelope
}

func newProxyMessage(t MessageType) ProxyMessage {
	return ProxyMessage{env: wire.NewEnvelope(uint32(t))}
}

// Type returns the wire type code.
func (m *ProxyMessage) Type() MessageType { return MessageType(m.env.TypeCode) }

// Envelope returns the underlying envelope.
func (m *ProxyMessage) Envelope() *wire.Envelope { return m.env }

func (m *ProxyMessage) base() *ProxyMessage { return m }

// Properties exposes the raw bag for callers that need keys the catalog does not name.
func (m *ProxyMessage) Properties() *wire.Properties {
	if m.env.Properties == nil {
		m.env.Properties = wire.NewProperties()
	}
	return m.env.Properties
}

// String renders the type and properties for logs.
func (m *ProxyMessage) String() string {
	s := m.Type().String() + "{"
	for i, p := range m.Properties().Entries() {
		if i > 0 {
			s += ", "
		}
		if !p.Present {
			s += p.Key + "=<null>"
			continue
		}
		s += fmt.Sprintf("%s=%q", p.Key, p.Value)
	}
	if n := len(m.env.SubMessages); n > 0 {
		s += fmt.Sprintf(", +%d sub", n)
	}
	return s + "}"
}

// The helpers below read zero values for absent, null or malformed properties.

func (m *ProxyMessage) str(key string) string {
	v, _ := m.Properties().GetString(key)
	return v
}

func (m *ProxyMessage) setStr(key, value string) {
	m.Properties().SetOptionalString(key, value)
}

func (m *ProxyMessage) int32(key string) int32 {
	v, _ := m.Properties().Int32(key)
	return v
}

func (m *ProxyMessage) int64(key string) int64 {
	v, _ := m.Properties().Int64(key)
	return v
}

func (m *ProxyMessage) bool(key string) bool {
	v, _ := m.Properties().Bool(key)
	return v
}

func (m *ProxyMessage) duration(key string) time.Duration {
	v, _ := m.Properties().Duration(key)
	return v
}

// ProxyRequest carries the request id and the fixed reply type.
type ProxyRequest struct {
	ProxyMessage
	replyType MessageType
}

func newProxyRequest(t, reply MessageType) ProxyRequest {
	return ProxyRequest{ProxyMessage: newProxyMessage(t), replyType: reply}
}

// RequestID returns the correlation id; zero means not yet assigned.
func (r *ProxyRequest) RequestID() int64 { return r.int64(RequestIDKey) }

// SetRequestID sets the correlation id.
func (r *ProxyRequest) SetRequestID(id int64) { r.Properties().SetInt64(RequestIDKey, id) }

// ReplyType returns the type code of the reply that answers this request.
func (r *ProxyRequest) ReplyType() MessageType { return r.replyType }

// ProxyReply carries the request id and the error fields.
type ProxyReply struct {
	ProxyMessage
}

func newProxyReply(t MessageType) ProxyReply {
	return ProxyReply{ProxyMessage: newProxyMessage(t)}
}

// RequestID returns the id of the request being answered.
func (r *ProxyReply) RequestID() int64 { return r.int64(RequestIDKey) }

// SetRequestID sets the id of the request being answered.
func (r *ProxyReply) SetRequestID(id int64) { r.Properties().SetInt64(RequestIDKey, id) }

// ErrorType parses the ErrorType property. Unknown names read as Generic.
func (r *ProxyReply) ErrorType() cadenceerrors.ErrorType {
	s, ok := r.Properties().GetString(ErrorTypeKey)
	if !ok {
		return cadenceerrors.None
	}
	t, err := cadenceerrors.ParseErrorType(s)
	if err != nil {
		return cadenceerrors.Generic
	}
	return t
}

// ErrorMessage returns the Error property.
func (r *ProxyReply) ErrorMessage() string { return r.str(ErrorKey) }

// ErrorDetails returns the ErrorDetails property.
func (r *ProxyReply) ErrorDetails() string { return r.str(ErrorDetailsKey) }

// SetError sets the three error properties together so that ErrorType None
// always goes with an empty Error and any other type with a non-empty one.
func (r *ProxyReply) SetError(errType cadenceerrors.ErrorType, message, details string) {
	p := r.Properties()
	name, ok := errType.WireName()
	if !ok {
		p.SetNull(ErrorTypeKey)
		p.SetNull(ErrorKey)
		p.SetNull(ErrorDetailsKey)
		return
	}
	if message == "" {
		message = name
	}
	p.SetString(ErrorTypeKey, name)
	p.SetString(ErrorKey, message)
	p.SetOptionalString(ErrorDetailsKey, details)
}

// Err converts the error fields into a *cadenceerrors.CadenceError, or nil on success.
// A reply that names no type but carries an Error is treated as Generic.
func (r *ProxyReply) Err() error {
	errType := r.ErrorType()
	msg := r.ErrorMessage()
	if errType == cadenceerrors.None {
		if msg == "" {
			return nil
		}
		errType = cadenceerrors.Generic
	}
	return cadenceerrors.New(errType, msg, r.ErrorDetails())
}

// ValidateReply checks the ErrorType/Error pairing.
func ValidateReply(r Reply) error {
	none := r.ErrorType() == cadenceerrors.None
	empty := r.ErrorMessage() == ""
	if none != empty {
		return fmt.Errorf("messages: %s request %d: ErrorType=%s with Error=%q", r.Type(), r.RequestID(), r.ErrorType(), r.ErrorMessage())
	}
	return nil
}
