package cadence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/cadence-client/pkg/cadenceerrors"
	"github.com/morezero/cadence-client/pkg/messages"
)

const workflowLogPrefix = "cadence:workflow"

// RegisterWorkflow tells the proxy this process implements the workflow name
// and routes the proxy's invoke calls for it to fn.
func (c *Client) RegisterWorkflow(ctx context.Context, name string, fn WorkflowFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%s - workflow name and function are required: %w", workflowLogPrefix, ErrInvalidArgument)
	}

	// Installed before the request so an invoke racing the reply finds it.
	c.mu.Lock()
	prev, existed := c.workflows[name]
	c.workflows[name] = fn
	c.mu.Unlock()

	req := messages.NewWorkflowRegisterRequest()
	req.SetName(name)
	if _, err := c.call(ctx, "workflow.register", req); err != nil {
		c.mu.Lock()
		if existed {
			c.workflows[name] = prev
		} else {
			delete(c.workflows, name)
		}
		c.mu.Unlock()
		return err
	}
	slog.Info(fmt.Sprintf("%s - registered workflow %s", workflowLogPrefix, name))
	return nil
}

// ExecuteWorkflow starts a workflow run.
func (c *Client) ExecuteWorkflow(ctx context.Context, input *ExecuteWorkflowInput) (*WorkflowExecution, error) {
	if input == nil || input.Name == "" {
		return nil, fmt.Errorf("%s - workflow name is required: %w", workflowLogPrefix, ErrInvalidArgument)
	}
	domain := input.Domain
	if domain == "" {
		domain = c.config.Domain
	}
	if domain == "" {
		return nil, fmt.Errorf("%s - no domain given or configured: %w", workflowLogPrefix, ErrInvalidArgument)
	}
	if input.Options != nil && !input.Options.WorkflowIDReusePolicy.Valid() {
		return nil, fmt.Errorf("%s - reuse policy %d: %w", workflowLogPrefix, input.Options.WorkflowIDReusePolicy, ErrInvalidArgument)
	}

	req := messages.NewWorkflowExecuteRequest()
	req.SetDomain(domain)
	req.SetName(input.Name)
	if input.Options != nil {
		if err := req.SetOptions(input.Options); err != nil {
			return nil, fmt.Errorf("%s - %w", workflowLogPrefix, err)
		}
	}
	for _, a := range input.Args {
		if err := req.AddArg(a.Name, a.Value); err != nil {
			return nil, fmt.Errorf("%s - argument %q: %w", workflowLogPrefix, a.Name, err)
		}
	}

	reply, err := c.call(ctx, "workflow.execute", req)
	if err != nil {
		return nil, err
	}
	r, err := replyAs[*messages.WorkflowExecuteReply](reply)
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - started %s workflowId=%s runId=%s", workflowLogPrefix, input.Name, r.WorkflowID(), r.RunID()))
	return &WorkflowExecution{
		WorkflowID:      r.WorkflowID(),
		RunID:           r.RunID(),
		DecisionTimeout: r.DecisionTimeout(),
	}, nil
}

func (c *Client) workflow(name string) (WorkflowFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.workflows[name]
	return fn, ok
}

// handleInvoke answers the proxy's WorkflowInvoke calls.
func (c *Client) handleInvoke(ctx context.Context, req messages.Request) (messages.Reply, error) {
	inv, ok := req.(*messages.WorkflowInvokeRequest)
	if !ok {
		return nil, cadenceerrors.New(cadenceerrors.Generic, fmt.Sprintf("unexpected %s", req.Type()), "")
	}
	fn, ok := c.workflow(inv.Name())
	if !ok {
		slog.Warn(fmt.Sprintf("%s - invoke for unregistered workflow %q", workflowLogPrefix, inv.Name()))
		return nil, cadenceerrors.New(cadenceerrors.Generic, fmt.Sprintf("workflow %q is not registered", inv.Name()), "")
	}
	args, err := inv.ArgsMap()
	if err != nil {
		return nil, cadenceerrors.New(cadenceerrors.Generic, "malformed workflow arguments", err.Error())
	}

	result, err := fn(ctx, &WorkflowInvocation{
		ContextID: inv.WorkflowContextID(),
		Name:      inv.Name(),
		Args:      args,
	})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, cadenceerrors.New(cadenceerrors.Generic, "workflow result is not JSON encodable", err.Error())
	}

	reply := messages.NewWorkflowInvokeReply()
	reply.SetResult(data)
	return reply, nil
}
