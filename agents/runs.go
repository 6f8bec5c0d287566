// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func runsPath(threadID string) string {
	return "/threads/" + url.PathEscape(threadID) + "/runs"
}

func runPath(threadID, runID string) string {
	return runsPath(threadID) + "/" + url.PathEscape(runID)
}

// CreateRun starts a run of an agent on a thread. The run is returned in
// its initial status; use [Client.PollRun] to wait for it.
func (c *Client) CreateRun(ctx context.Context, threadID string, params CreateRunParams) (*Run, error) {
	if params.AgentID == "" {
		return nil, fmt.Errorf("%w: agent ID is required", ErrInvalidRequest)
	}
	params.Stream = false
	var run Run
	if err := c.doJSON(ctx, http.MethodPost, runsPath(threadID), nil, params, &run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &run, nil
}

// CreateThreadAndRun creates a thread and starts a run on it in one call.
func (c *Client) CreateThreadAndRun(ctx context.Context, params CreateThreadAndRunParams) (*Run, error) {
	if params.AgentID == "" {
		return nil, fmt.Errorf("%w: agent ID is required", ErrInvalidRequest)
	}
	params.Stream = false
	var run Run
	if err := c.doJSON(ctx, http.MethodPost, "/threads/runs", nil, params, &run); err != nil {
		return nil, fmt.Errorf("create thread and run: %w", err)
	}
	return &run, nil
}

// GetRun retrieves the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.doJSON(ctx, http.MethodGet, runPath(threadID, runID), nil, nil, &run); err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns one page of a thread's runs.
func (c *Client) ListRuns(ctx context.Context, threadID string, opts *ListOptions) (*ListPage[Run], error) {
	var page ListPage[Run]
	if err := c.doJSON(ctx, http.MethodGet, runsPath(threadID), listQuery(opts), nil, &page); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return &page, nil
}

// CancelRun asks the service to cancel a run.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.doJSON(ctx, http.MethodPost, runPath(threadID, runID)+"/cancel", nil, struct{}{}, &run); err != nil {
		return nil, fmt.Errorf("cancel run %s: %w", runID, err)
	}
	return &run, nil
}

type submitToolOutputsBody struct {
	ToolOutputs   []ToolOutput   `json:"tool_outputs,omitempty"`
	ToolApprovals []ToolApproval `json:"tool_approvals,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
}

// SubmitToolOutputs answers the function calls of a run in requires_action.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no tool outputs to submit", ErrInvalidRequest)
	}
	var run Run
	body := submitToolOutputsBody{ToolOutputs: outputs}
	if err := c.doJSON(ctx, http.MethodPost, runPath(threadID, runID)+"/submit_tool_outputs", nil, body, &run); err != nil {
		return nil, fmt.Errorf("submit tool outputs: %w", err)
	}
	return &run, nil
}

// SubmitToolApprovals answers the MCP approval requests of a run.
func (c *Client) SubmitToolApprovals(ctx context.Context, threadID, runID string, approvals []ToolApproval) (*Run, error) {
	if len(approvals) == 0 {
		return nil, fmt.Errorf("%w: no tool approvals to submit", ErrInvalidRequest)
	}
	var run Run
	body := submitToolOutputsBody{ToolApprovals: approvals}
	if err := c.doJSON(ctx, http.MethodPost, runPath(threadID, runID)+"/submit_tool_outputs", nil, body, &run); err != nil {
		return nil, fmt.Errorf("submit tool approvals: %w", err)
	}
	return &run, nil
}

// ListRunSteps returns one page of the steps a run recorded.
func (c *Client) ListRunSteps(ctx context.Context, threadID, runID string, opts *ListOptions) (*ListPage[RunStep], error) {
	var page ListPage[RunStep]
	if err := c.doJSON(ctx, http.MethodGet, runPath(threadID, runID)+"/steps", listQuery(opts), nil, &page); err != nil {
		return nil, fmt.Errorf("list run steps: %w", err)
	}
	return &page, nil
}

// GetRunStep retrieves one step of a run.
func (c *Client) GetRunStep(ctx context.Context, threadID, runID, stepID string) (*RunStep, error) {
	var step RunStep
	path := runPath(threadID, runID) + "/steps/" + url.PathEscape(stepID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &step); err != nil {
		return nil, fmt.Errorf("get run step %s: %w", stepID, err)
	}
	return &step, nil
}
