// Package cadence exposes the named operations applications call: domain and
// workflow management over a proxy connection.
package cadence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/morezero/cadence-client/pkg/messages"
)

// RegisterDomainInput holds parameters for RegisterDomain.
type RegisterDomainInput struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	OwnerEmail    string `json:"ownerEmail,omitempty"`
	EmitMetrics   bool   `json:"emitMetrics"`
	RetentionDays int32  `json:"retentionDays"`
}

// UpdateDomainInput holds parameters for UpdateDomain.
type UpdateDomainInput struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	OwnerEmail    string `json:"ownerEmail,omitempty"`
	EmitMetrics   bool   `json:"emitMetrics"`
	RetentionDays int32  `json:"retentionDays"`
}

// DomainDescription is the projection of a DomainDescribeReply.
type DomainDescription struct {
	Name          string                `json:"name"`
	Description   string                `json:"description,omitempty"`
	Status        messages.DomainStatus `json:"status"`
	OwnerEmail    string                `json:"ownerEmail,omitempty"`
	RetentionDays int32                 `json:"retentionDays"`
	EmitMetrics   bool                  `json:"emitMetrics"`
}

// Arg is one named workflow argument. Value is marshalled as JSON.
type Arg struct {
	Name  string
	Value interface{}
}

// ExecuteWorkflowInput holds parameters for ExecuteWorkflow. An empty Domain
// uses the client's configured domain.
type ExecuteWorkflowInput struct {
	Domain  string
	Name    string
	Options *messages.StartWorkflowOptions
	Args    []Arg
}

// WorkflowExecution identifies a started workflow run.
type WorkflowExecution struct {
	WorkflowID      string        `json:"workflowId"`
	RunID           string        `json:"runId"`
	DecisionTimeout time.Duration `json:"decisionTimeout"`
}

// WorkflowInvocation is a proxy request to run a registered workflow.
type WorkflowInvocation struct {
	ContextID int64
	Name      string
	Args      map[string]json.RawMessage
}

// WorkflowFunc runs a workflow. Its result is marshalled as JSON into the
// invoke reply; a returned *cadenceerrors.CadenceError keeps its kind, any
// other error is reported as Generic.
type WorkflowFunc func(ctx context.Context, inv *WorkflowInvocation) (interface{}, error)
