package messages

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkflowIDReusePolicy controls whether a workflow ID may be reused after a
// previous run with the same ID has closed.
type WorkflowIDReusePolicy int

const (
	AllowDuplicateFailedOnly WorkflowIDReusePolicy = iota
	AllowDuplicate
	RejectDuplicate
)

func (p WorkflowIDReusePolicy) String() string {
	switch p {
	case AllowDuplicateFailedOnly:
		return "AllowDuplicateFailedOnly"
	case AllowDuplicate:
		return "AllowDuplicate"
	case RejectDuplicate:
		return "RejectDuplicate"
	}
	return fmt.Sprintf("WorkflowIDReusePolicy(%d)", int(p))
}

// Valid reports whether p is one of the three defined policies.
func (p WorkflowIDReusePolicy) Valid() bool {
	return p >= AllowDuplicateFailedOnly && p <= RejectDuplicate
}

// StartWorkflowOptions travels JSON encoded in the Options property.
type StartWorkflowOptions struct {
	ID                              string                `json:"ID,omitempty"`
	TaskList                        string                `json:"TaskList"`
	ExecutionStartToCloseTimeout    time.Duration         `json:"ExecutionStartToCloseTimeout"`
	DecisionTaskStartToCloseTimeout time.Duration         `json:"DecisionTaskStartToCloseTimeout,omitempty"`
	WorkflowIDReusePolicy           WorkflowIDReusePolicy `json:"WorkflowIDReusePolicy"`
}

// Argument is one named, JSON encoded workflow argument.
type Argument struct{ ProxyMessage }

func NewArgument(name string, value interface{}) (*Argument, error) {
	a := &Argument{newProxyMessage(TypeArgument)}
	a.setStr("Name", name)
	if err := a.Properties().SetJSON("Value", value); err != nil {
		return nil, fmt.Errorf("messages: argument %q: %w", name, err)
	}
	return a, nil
}

func (a *Argument) Name() string { return a.str("Name") }

// Value returns the raw JSON value, nil when the argument was null.
func (a *Argument) Value() json.RawMessage { return a.Properties().Bytes("Value") }

// Decode unmarshals the value into target.
func (a *Argument) Decode(target interface{}) error {
	if _, err := a.Properties().JSON("Value", target); err != nil {
		return fmt.Errorf("messages: argument %q: %w", a.Name(), err)
	}
	return nil
}

// argList is embedded by requests that carry arguments as sub-envelopes.
type argList struct {
	msg *ProxyMessage
}

// Args returns the arguments in order. A sub-envelope that is not an
// Argument record is an error.
func (l argList) Args() ([]*Argument, error) {
	subs := l.msg.env.SubMessages
	args := make([]*Argument, 0, len(subs))
	for i, sub := range subs {
		if sub == nil || MessageType(sub.TypeCode) != TypeArgument {
			return nil, fmt.Errorf("messages: sub-envelope %d is not an argument", i)
		}
		args = append(args, &Argument{ProxyMessage{env: sub}})
	}
	return args, nil
}

// AddArg appends an argument.
func (l argList) AddArg(name string, value interface{}) error {
	a, err := NewArgument(name, value)
	if err != nil {
		return err
	}
	l.msg.env.SubMessages = append(l.msg.env.SubMessages, a.env)
	return nil
}

// ArgsMap indexes the arguments by name. Later duplicates win.
func (l argList) ArgsMap() (map[string]json.RawMessage, error) {
	args, err := l.Args()
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(args))
	for _, a := range args {
		out[a.Name()] = a.Value()
	}
	return out, nil
}

type WorkflowRegisterRequest struct{ ProxyRequest }

func NewWorkflowRegisterRequest() *WorkflowRegisterRequest {
	return &WorkflowRegisterRequest{newProxyRequest(TypeWorkflowRegisterRequest, TypeWorkflowRegisterReply)}
}

func (m *WorkflowRegisterRequest) Name() string     { return m.str("Name") }
func (m *WorkflowRegisterRequest) SetName(v string) { m.setStr("Name", v) }

type WorkflowRegisterReply struct{ ProxyReply }

func NewWorkflowRegisterReply() *WorkflowRegisterReply {
	return &WorkflowRegisterReply{newProxyReply(TypeWorkflowRegisterReply)}
}

// WorkflowExecuteRequest starts a workflow run on the cluster.
type WorkflowExecuteRequest struct {
	ProxyRequest
	argList
}

func NewWorkflowExecuteRequest() *WorkflowExecuteRequest {
	m := &WorkflowExecuteRequest{ProxyRequest: newProxyRequest(TypeWorkflowExecuteRequest, TypeWorkflowExecuteReply)}
	m.argList = argList{msg: &m.ProxyMessage}
	return m
}

func (m *WorkflowExecuteRequest) Domain() string     { return m.str("Domain") }
func (m *WorkflowExecuteRequest) SetDomain(v string) { m.setStr("Domain", v) }
func (m *WorkflowExecuteRequest) Name() string       { return m.str("Name") }
func (m *WorkflowExecuteRequest) SetName(v string)   { m.setStr("Name", v) }

// Options decodes the start options. It returns nil when none were set.
func (m *WorkflowExecuteRequest) Options() (*StartWorkflowOptions, error) {
	var opts StartWorkflowOptions
	ok, err := m.Properties().JSON("Options", &opts)
	if err != nil {
		return nil, fmt.Errorf("messages: workflow options: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &opts, nil
}

func (m *WorkflowExecuteRequest) SetOptions(opts *StartWorkflowOptions) error {
	if opts == nil {
		m.Properties().SetNull("Options")
		return nil
	}
	return m.Properties().SetJSON("Options", opts)
}

type WorkflowExecuteReply struct{ ProxyReply }

func NewWorkflowExecuteReply() *WorkflowExecuteReply {
	return &WorkflowExecuteReply{newProxyReply(TypeWorkflowExecuteReply)}
}

func (m *WorkflowExecuteReply) WorkflowID() string     { return m.str("WorkflowId") }
func (m *WorkflowExecuteReply) SetWorkflowID(v string) { m.setStr("WorkflowId", v) }
func (m *WorkflowExecuteReply) RunID() string          { return m.str("RunId") }
func (m *WorkflowExecuteReply) SetRunID(v string)      { m.setStr("RunId", v) }
func (m *WorkflowExecuteReply) DecisionTimeout() time.Duration {
	return m.duration("DecisionTimeout")
}
func (m *WorkflowExecuteReply) SetDecisionTimeout(v time.Duration) {
	m.Properties().SetDuration("DecisionTimeout", v)
}

// WorkflowInvokeRequest is sent by the proxy to run a registered workflow
// function inside this process.
type WorkflowInvokeRequest struct {
	ProxyRequest
	argList
}

func NewWorkflowInvokeRequest() *WorkflowInvokeRequest {
	m := &WorkflowInvokeRequest{ProxyRequest: newProxyRequest(TypeWorkflowInvokeRequest, TypeWorkflowInvokeReply)}
	m.argList = argList{msg: &m.ProxyMessage}
	return m
}

func (m *WorkflowInvokeRequest) WorkflowContextID() int64 { return m.int64("WorkflowContextId") }
func (m *WorkflowInvokeRequest) SetWorkflowContextID(v int64) {
	m.Properties().SetInt64("WorkflowContextId", v)
}
func (m *WorkflowInvokeRequest) Name() string     { return m.str("Name") }
func (m *WorkflowInvokeRequest) SetName(v string) { m.setStr("Name", v) }

type WorkflowInvokeReply struct{ ProxyReply }

func NewWorkflowInvokeReply() *WorkflowInvokeReply {
	return &WorkflowInvokeReply{newProxyReply(TypeWorkflowInvokeReply)}
}

// Result returns the raw JSON result, nil when the workflow returned nothing.
func (m *WorkflowInvokeReply) Result() json.RawMessage { return m.Properties().Bytes("Result") }

func (m *WorkflowInvokeReply) SetResult(v json.RawMessage) { m.Properties().SetBytes("Result", v) }
