// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Server-sent event names of a streamed run.
const (
	EventRunCreated        = "thread.run.created"
	EventRunQueued         = "thread.run.queued"
	EventRunInProgress     = "thread.run.in_progress"
	EventRunRequiresAction = "thread.run.requires_action"
	EventRunCompleted      = "thread.run.completed"
	EventRunIncomplete     = "thread.run.incomplete"
	EventRunFailed         = "thread.run.failed"
	EventRunCancelling     = "thread.run.cancelling"
	EventRunCancelled      = "thread.run.cancelled"
	EventRunExpired        = "thread.run.expired"

	EventRunStepCreated    = "thread.run.step.created"
	EventRunStepInProgress = "thread.run.step.in_progress"
	EventRunStepDelta      = "thread.run.step.delta"
	EventRunStepCompleted  = "thread.run.step.completed"
	EventRunStepFailed     = "thread.run.step.failed"
	EventRunStepCancelled  = "thread.run.step.cancelled"
	EventRunStepExpired    = "thread.run.step.expired"

	EventMessageCreated    = "thread.message.created"
	EventMessageInProgress = "thread.message.in_progress"
	EventMessageDelta      = "thread.message.delta"
	EventMessageCompleted  = "thread.message.completed"
	EventMessageIncomplete = "thread.message.incomplete"

	EventError = "error"
	EventDone  = "done"
)

// MessageDelta is the payload of a thread.message.delta event.
type MessageDelta struct {
	ID     string           `json:"id"`
	Object string           `json:"object,omitempty"`
	Delta  MessageDeltaBody `json:"delta"`
}

// MessageDeltaBody holds the incremental content of a message.
type MessageDeltaBody struct {
	Role    MessageRole           `json:"role,omitempty"`
	Content []MessageDeltaContent `json:"content,omitempty"`
}

// MessageDeltaContent is one partial content block.
type MessageDeltaContent struct {
	Index int          `json:"index"`
	Type  string       `json:"type"`
	Text  *MessageText `json:"text,omitempty"`
}

// RunEvent is one server-sent event of a streamed run. Event holds the
// event name; the field matching the payload kind is decoded.
type RunEvent struct {
	Event string
	Data  json.RawMessage

	Run          *Run
	Step         *RunStep
	Message      *ThreadMessage
	MessageDelta *MessageDelta
	Error        *RunLastError
}

// Text returns the delta text of a thread.message.delta event.
func (e RunEvent) Text() string {
	if e.MessageDelta == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range e.MessageDelta.Delta.Content {
		if c.Text != nil {
			sb.WriteString(c.Text.Value)
		}
	}
	return sb.String()
}

func decodeRunEvent(name string, data []byte) (RunEvent, error) {
	ev := RunEvent{Event: name, Data: json.RawMessage(data)}
	var target any
	switch {
	case name == EventDone:
		return ev, nil
	case name == EventError:
		var wrapper struct {
			Error *RunLastError `json:"error"`
		}
		if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Error != nil {
			ev.Error = wrapper.Error
			return ev, nil
		}
		ev.Error = &RunLastError{}
		target = ev.Error
	case name == EventMessageDelta:
		ev.MessageDelta = &MessageDelta{}
		target = ev.MessageDelta
	case name == EventRunStepDelta:
		return ev, nil
	case strings.HasPrefix(name, "thread.run.step."):
		ev.Step = &RunStep{}
		target = ev.Step
	case strings.HasPrefix(name, "thread.run."):
		ev.Run = &Run{}
		target = ev.Run
	case strings.HasPrefix(name, "thread.message."):
		ev.Message = &ThreadMessage{}
		target = ev.Message
	default:
		return ev, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return ev, fmt.Errorf("%w: decode %s event: %v", ErrInvalidResponse, name, err)
	}
	return ev, nil
}

// parseRunEvents reads server-sent events from r and sends them to ch. It
// returns after the done event, at the end of r, or when ctx is done.
func parseRunEvents(ctx context.Context, r io.Reader, ch chan<- RunEvent) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var name string
	var data strings.Builder
	dispatch := func() (bool, error) {
		defer func() {
			name = ""
			data.Reset()
		}()
		if name == "" && data.Len() == 0 {
			return false, nil
		}
		payload := data.String()
		if name == "" {
			name = "message"
		}
		if payload == "[DONE]" {
			name = EventDone
		}
		ev, err := decodeRunEvent(name, []byte(payload))
		if err != nil {
			return false, err
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		return ev.Event == EventDone, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			done, err := dispatch()
			if err != nil || done {
				return err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: read event stream: %v", ErrService, err)
	}
	_, err := dispatch()
	return err
}

// RunStream iterates over the events of a streamed run.
type RunStream struct {
	*ResponseStream[RunEvent]
}

func newRunStream(ctx context.Context, body io.ReadCloser) *RunStream {
	return &RunStream{NewResponseStream(ctx, func(ctx context.Context, ch chan<- RunEvent) error {
		stop := context.AfterFunc(ctx, func() { body.Close() })
		defer stop()
		defer body.Close()
		return parseRunEvents(ctx, body, ch)
	})}
}

// openStream sends a POST with body and returns the event stream of the response.
func (c *Client) openStream(ctx context.Context, path string, body any) (*RunStream, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	req.Raw().Header.Set("Accept", "text/event-stream")
	if err := runtime.MarshalAsJSON(req, body); err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	runtime.SkipBodyDownload(req)

	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		defer resp.Body.Close()
		return nil, parseErrorResponse(resp)
	}
	return newRunStream(ctx, resp.Body), nil
}

// CreateRunStream starts a run and streams its events.
func (c *Client) CreateRunStream(ctx context.Context, threadID string, params CreateRunParams) (*RunStream, error) {
	if params.AgentID == "" {
		return nil, fmt.Errorf("%w: agent ID is required", ErrInvalidRequest)
	}
	params.Stream = true
	s, err := c.openStream(ctx, runsPath(threadID), params)
	if err != nil {
		return nil, fmt.Errorf("create run stream: %w", err)
	}
	return s, nil
}

// SubmitToolOutputsStream answers function calls and streams the resumed run.
func (c *Client) SubmitToolOutputsStream(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*RunStream, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no tool outputs to submit", ErrInvalidRequest)
	}
	body := submitToolOutputsBody{ToolOutputs: outputs, Stream: true}
	s, err := c.openStream(ctx, runPath(threadID, runID)+"/submit_tool_outputs", body)
	if err != nil {
		return nil, fmt.Errorf("submit tool outputs stream: %w", err)
	}
	return s, nil
}

func (c *Client) submitApprovalsStream(ctx context.Context, threadID, runID string, approvals []ToolApproval) (*RunStream, error) {
	body := submitToolOutputsBody{ToolApprovals: approvals, Stream: true}
	s, err := c.openStream(ctx, runPath(threadID, runID)+"/submit_tool_outputs", body)
	if err != nil {
		return nil, fmt.Errorf("submit tool approvals stream: %w", err)
	}
	return s, nil
}

// StreamOptions configures [Client.StreamRun].
type StreamOptions struct {
	// Functions answers function calls of thread.run.requires_action events.
	Functions *FunctionSet

	// Approve decides MCP approval requests. Nil approves every call.
	Approve func(ctx context.Context, call RequiredToolCall) bool

	// OnEvent is called for every event, in order.
	OnEvent func(ev RunEvent)
}

// StreamRun starts a streamed run and drives it to the end, answering
// required actions and following the resumed streams. The result mapping
// matches [Client.PollRun].
func (c *Client) StreamRun(ctx context.Context, threadID string, params CreateRunParams, opts *StreamOptions) (*Run, error) {
	var o StreamOptions
	if opts != nil {
		o = *opts
	}

	ctx, span := c.tracer.Start(ctx, "agents.stream_run", trace.WithAttributes(
		attribute.String("agents.thread_id", threadID),
	))
	defer span.End()
	events := 0
	finish := func(run *Run, err error) (*Run, error) {
		span.SetAttributes(attribute.Int("agents.event_count", events))
		if run != nil {
			span.SetAttributes(
				attribute.String("agents.run_id", run.ID),
				attribute.String("agents.run_status", string(run.Status)),
			)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return run, err
	}

	stream, err := c.CreateRunStream(ctx, threadID, params)
	if err != nil {
		return finish(nil, err)
	}

	var last *Run
	for {
		next, run, err := c.drainStream(ctx, stream, &o, &events)
		stream.Close()
		if run != nil {
			last = run
		}
		if err != nil {
			return finish(last, err)
		}
		if next == nil {
			break
		}
		stream = next
	}

	if last == nil {
		return finish(nil, fmt.Errorf("%w: stream ended without a run event", ErrInvalidResponse))
	}
	return finish(last, RunResult(last))
}

// drainStream consumes stream until it ends or the run requires action.
// It returns the stream resuming the run, if any, and the last run seen.
func (c *Client) drainStream(ctx context.Context, stream *RunStream, o *StreamOptions, events *int) (*RunStream, *Run, error) {
	var last *Run
	for {
		ev, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, last, err
		}
		if !ok {
			return nil, last, nil
		}
		*events++
		if o.OnEvent != nil {
			o.OnEvent(ev)
		}
		if ev.Run != nil {
			last = ev.Run
		}

		switch ev.Event {
		case EventError:
			msg := "stream error"
			if ev.Error != nil && ev.Error.Message != "" {
				msg = ev.Error.Message
			}
			return nil, last, fmt.Errorf("%w: %s", ErrService, msg)
		case EventRunRequiresAction:
			next, run, err := c.resumeStream(ctx, ev.Run, o)
			if run != nil {
				last = run
			}
			return next, last, err
		}
	}
}

func (c *Client) resumeStream(ctx context.Context, run *Run, o *StreamOptions) (*RunStream, *Run, error) {
	calls := run.RequiredAction.ToolCalls()
	if len(calls) == 0 {
		slog.WarnContext(ctx, "run requires action without tool calls, cancelling", "run_id", run.ID)
		cancelled, err := c.CancelRun(ctx, run.ThreadID, run.ID)
		return nil, cancelled, err
	}
	if run.RequiredAction.Type == RequiredActionSubmitToolApproval {
		approvals := make([]ToolApproval, 0, len(calls))
		for _, call := range calls {
			approvals = append(approvals, ToolApproval{
				ToolCallID: call.ID,
				Approve:    o.Approve == nil || o.Approve(ctx, call),
			})
		}
		next, err := c.submitApprovalsStream(ctx, run.ThreadID, run.ID, approvals)
		return next, nil, err
	}
	outputs := o.Functions.ExecuteAll(ctx, calls)
	next, err := c.SubmitToolOutputsStream(ctx, run.ThreadID, run.ID, outputs)
	return next, nil, err
}
