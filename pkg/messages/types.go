// Package messages defines the proxy message catalog and the type registry
// that maps wire type codes to concrete message shapes.
package messages

import "fmt"

// MessageType is the wire type code of a message. Zero is never valid on the wire.
type MessageType uint32

// Catalog type codes. A request's reply type is always the request code + 1.
const (
	TypeUnspecified MessageType = 0

	TypeInitializeRequest MessageType = 1
	TypeInitializeReply   MessageType = 2
	TypeConnectRequest    MessageType = 3
	TypeConnectReply      MessageType = 4
	TypeHeartbeatRequest  MessageType = 5
	TypeHeartbeatReply    MessageType = 6
	TypeTerminateRequest  MessageType = 7
	TypeTerminateReply    MessageType = 8
	TypeCancelRequest     MessageType = 9
	TypeCancelReply       MessageType = 10

	TypeDomainRegisterRequest MessageType = 11
	TypeDomainRegisterReply   MessageType = 12
	TypeDomainDescribeRequest MessageType = 13
	TypeDomainDescribeReply   MessageType = 14
	TypeDomainUpdateRequest   MessageType = 15
	TypeDomainUpdateReply     MessageType = 16

	TypeWorkflowRegisterRequest MessageType = 17
	TypeWorkflowRegisterReply   MessageType = 18
	TypeWorkflowExecuteRequest  MessageType = 19
	TypeWorkflowExecuteReply    MessageType = 20
	TypeWorkflowInvokeRequest   MessageType = 21
	TypeWorkflowInvokeReply     MessageType = 22

	// TypeArgument is a record carried as a sub-envelope, never sent on its own.
	TypeArgument MessageType = 100
)

var typeNames = map[MessageType]string{
	TypeUnspecified:             "Unspecified",
	TypeInitializeRequest:       "InitializeRequest",
	TypeInitializeReply:         "InitializeReply",
	TypeConnectRequest:          "ConnectRequest",
	TypeConnectReply:            "ConnectReply",
	TypeHeartbeatRequest:        "HeartbeatRequest",
	TypeHeartbeatReply:          "HeartbeatReply",
	TypeTerminateRequest:        "TerminateRequest",
	TypeTerminateReply:          "TerminateReply",
	TypeCancelRequest:           "CancelRequest",
	TypeCancelReply:             "CancelReply",
	TypeDomainRegisterRequest:   "DomainRegisterRequest",
	TypeDomainRegisterReply:     "DomainRegisterReply",
	TypeDomainDescribeRequest:   "DomainDescribeRequest",
	TypeDomainDescribeReply:     "DomainDescribeReply",
	TypeDomainUpdateRequest:     "DomainUpdateRequest",
	TypeDomainUpdateReply:       "DomainUpdateReply",
	TypeWorkflowRegisterRequest: "WorkflowRegisterRequest",
	TypeWorkflowRegisterReply:   "WorkflowRegisterReply",
	TypeWorkflowExecuteRequest:  "WorkflowExecuteRequest",
	TypeWorkflowExecuteReply:    "WorkflowExecuteReply",
	TypeWorkflowInvokeRequest:   "WorkflowInvokeRequest",
	TypeWorkflowInvokeReply:     "WorkflowInvokeReply",
	TypeArgument:                "Argument",
}

func (t MessageType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MessageType(%d)", uint32(t))
}
