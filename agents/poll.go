// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPollInterval is the fixed wait between two fetches of a run.
const DefaultPollInterval = time.Second

// PollOptions configures [Client.PollRun].
type PollOptions struct {
	// Interval between fetches. Default: [DefaultPollInterval].
	Interval time.Duration

	// Functions answers submit_tool_outputs actions. When nil every function
	// call is answered with an unknown-function error output.
	Functions *FunctionSet

	// Approve decides MCP approval requests. Nil approves every call.
	Approve func(ctx context.Context, call RequiredToolCall) bool

	// OnStatus is called with the run after every fetch.
	OnStatus func(run *Run)
}

func (o *PollOptions) withDefaults() PollOptions {
	var out PollOptions
	if o != nil {
		out = *o
	}
	if out.Interval <= 0 {
		out.Interval = DefaultPollInterval
	}
	return out
}

// PollRun waits for run to leave the queued, in_progress and requires_action
// states, resolving required actions on the way. It sleeps a fixed interval
// before every fetch and never retries; ctx is the only bound.
//
// A requires_action without tool calls cancels the run. The returned error
// is nil only for completed runs; otherwise it is a [*RunError] wrapping
// [ErrRunFailed], [ErrRunCancelled] or [ErrRunNotCompleted], or the error of
// a failed service call. The last known run is always returned.
func (c *Client) PollRun(ctx context.Context, run *Run, opts *PollOptions) (*Run, error) {
	if run == nil {
		return nil, fmt.Errorf("%w: run is nil", ErrInvalidRequest)
	}
	o := opts.withDefaults()

	ctx, span := c.tracer.Start(ctx, "agents.poll_run", trace.WithAttributes(
		attribute.String("agents.thread_id", run.ThreadID),
		attribute.String("agents.run_id", run.ID),
	))
	defer span.End()

	polls := 0
	finish := func(run *Run, err error) (*Run, error) {
		span.SetAttributes(
			attribute.String("agents.run_status", string(run.Status)),
			attribute.Int("agents.poll_count", polls),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return run, err
	}

	for run.Status.Active() {
		if err := sleep(ctx, o.Interval); err != nil {
			return finish(run, err)
		}
		next, err := c.GetRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return finish(run, err)
		}
		polls++
		run = next
		slog.DebugContext(ctx, "run status", "run_id", run.ID, "status", run.Status)
		if o.OnStatus != nil {
			o.OnStatus(run)
		}

		if run.Status != RunStatusRequiresAction {
			continue
		}
		next, stop, err := c.resolveRequiredAction(ctx, run, &o)
		if err != nil {
			return finish(run, err)
		}
		run = next
		if stop {
			break
		}
	}
	return finish(run, RunResult(run))
}

// resolveRequiredAction answers the action of a run in requires_action and
// returns the service's response. stop is true when the run was cancelled.
func (c *Client) resolveRequiredAction(ctx context.Context, run *Run, o *PollOptions) (*Run, bool, error) {
	calls := run.RequiredAction.ToolCalls()
	if len(calls) == 0 {
		slog.WarnContext(ctx, "run requires action without tool calls, cancelling", "run_id", run.ID)
		cancelled, err := c.CancelRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return run, true, err
		}
		return cancelled, true, nil
	}

	if run.RequiredAction.Type == RequiredActionSubmitToolApproval {
		approvals := make([]ToolApproval, 0, len(calls))
		for _, call := range calls {
			ok := o.Approve == nil || o.Approve(ctx, call)
			approvals = append(approvals, ToolApproval{ToolCallID: call.ID, Approve: ok})
		}
		next, err := c.SubmitToolApprovals(ctx, run.ThreadID, run.ID, approvals)
		if err != nil {
			return run, false, err
		}
		return next, false, nil
	}

	outputs := o.Functions.ExecuteAll(ctx, calls)
	next, err := c.SubmitToolOutputs(ctx, run.ThreadID, run.ID, outputs)
	if err != nil {
		return run, false, err
	}
	return next, false, nil
}

// CreateAndProcessRun creates a run and polls it until it leaves the active states.
func (c *Client) CreateAndProcessRun(ctx context.Context, threadID string, params CreateRunParams, opts *PollOptions) (*Run, error) {
	run, err := c.CreateRun(ctx, threadID, params)
	if err != nil {
		return nil, err
	}
	return c.PollRun(ctx, run, opts)
}

// RunResult maps the status of a finished run to an error: nil for
// completed, a [*RunError] for everything else.
func RunResult(run *Run) error {
	re := &RunError{RunID: run.ID, ThreadID: run.ThreadID, Status: run.Status}
	switch run.Status {
	case RunStatusCompleted:
		return nil
	case RunStatusFailed:
		re.Err = ErrRunFailed
		if run.LastError != nil {
			re.Code = run.LastError.Code
			re.Message = run.LastError.Message
		}
	case RunStatusCancelled, RunStatusCancelling:
		re.Err = ErrRunCancelled
	case RunStatusExpired, RunStatusIncomplete:
		re.Err = ErrRunNotCompleted
		if run.IncompleteDetails != nil {
			re.Message = run.IncompleteDetails.Reason
		}
	default:
		re.Err = ErrRunNotCompleted
		re.Message = "run is still " + string(run.Status)
	}
	return re
}

// IsRunFailure reports whether err comes from a run that reached a
// non-success state, as opposed to a failed service call.
func IsRunFailure(err error) bool {
	return errors.Is(err, ErrRun)
}
