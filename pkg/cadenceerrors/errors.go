// Package cadenceerrors defines the error taxonomy carried by proxy replies.
package cadenceerrors

import (
	"errors"
	"fmt"
)

// ErrorType classifies the error carried by a reply.
type ErrorType int

const (
	None ErrorType = iota
	Cancelled
	Custom
	Generic
	Panic
	Terminated
	Timeout
)

// Wire strings for the ErrorType property. None is encoded as a null.
var typeNames = map[ErrorType]string{
	Cancelled:  "cancelled",
	Custom:     "custom",
	Generic:    "generic",
	Panic:      "panic",
	Terminated: "terminated",
	Timeout:    "timeout",
}

// String returns the wire name, or "none".
func (t ErrorType) String() string {
	if t == None {
		return "none"
	}
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// WireName returns the property value for t and false for None.
func (t ErrorType) WireName() (string, bool) {
	s, ok := typeNames[t]
	return s, ok
}

// ParseErrorType maps a wire name back to an ErrorType.
func ParseErrorType(s string) (ErrorType, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("cadenceerrors: unknown error type %q", s)
}

// Sentinels matched by errors.Is against any *CadenceError of the same kind.
var (
	ErrCancelled  = errors.New("cadence: cancelled")
	ErrCustom     = errors.New("cadence: custom error")
	ErrGeneric    = errors.New("cadence: generic error")
	ErrPanic      = errors.New("cadence: panic")
	ErrTerminated = errors.New("cadence: terminated")
	ErrTimeout    = errors.New("cadence: timeout")
)

var sentinels = map[ErrorType]error{
	Cancelled:  ErrCancelled,
	Custom:     ErrCustom,
	Generic:    ErrGeneric,
	Panic:      ErrPanic,
	Terminated: ErrTerminated,
	Timeout:    ErrTimeout,
}

// CadenceError is an error reported by the proxy or raised on its behalf.
type CadenceError struct {
	Type    ErrorType
	Message string
	Details string
}

func (e *CadenceError) Error() string {
	if e.Details != "" {
		return e.Type.String() + ": " + e.Message + " (" + e.Details + ")"
	}
	return e.Type.String() + ": " + e.Message
}

// Is matches the sentinel of the error's kind.
func (e *CadenceError) Is(target error) bool {
	s, ok := sentinels[e.Type]
	return ok && s == target
}

// IsBusinessError reports whether the error is a cluster-reported rejection
// (Generic or Custom) rather than a fault, timeout or cancellation.
func (e *CadenceError) IsBusinessError() bool {
	return e.Type == Generic || e.Type == Custom
}

// New builds the error for errType. It returns nil for None so callers can
// pass reply fields straight through.
func New(errType ErrorType, message, details string) error {
	if errType == None {
		return nil
	}
	if _, ok := sentinels[errType]; !ok {
		errType = Generic
	}
	if message == "" {
		message = errType.String()
	}
	return &CadenceError{Type: errType, Message: message, Details: details}
}

// TypeOf returns the ErrorType of err, Generic for foreign errors and None for nil.
func TypeOf(err error) ErrorType {
	if err == nil {
		return None
	}
	var ce *CadenceError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return Generic
}
