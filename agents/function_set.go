// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// FunctionHandler is the function signature for invoking a tool.
type FunctionHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// FunctionMiddleware wraps a [FunctionHandler] to add cross-cutting behavior.
// Middleware should call next to continue the chain, or return early to short-circuit.
type FunctionMiddleware func(next FunctionHandler) FunctionHandler

// chainFunctionMiddleware applies middleware in order (first in list = outermost wrapper).
func chainFunctionMiddleware(handler FunctionHandler, mws ...FunctionMiddleware) FunctionHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// FunctionSet resolves the function calls of a run in requires_action to
// local [Tool] implementations. The zero value is an empty set.
type FunctionSet struct {
	tools      map[string]Tool
	order      []string
	middleware []FunctionMiddleware
}

// NewFunctionSet returns a set holding tools.
func NewFunctionSet(tools ...Tool) *FunctionSet {
	s := &FunctionSet{}
	for _, t := range tools {
		s.Add(t)
	}
	return s
}

// Add registers t, replacing a tool of the same name.
func (s *FunctionSet) Add(t Tool) {
	if s.tools == nil {
		s.tools = make(map[string]Tool)
	}
	if _, ok := s.tools[t.Name()]; !ok {
		s.order = append(s.order, t.Name())
	}
	s.tools[t.Name()] = t
}

// Use appends middleware around every invocation.
func (s *FunctionSet) Use(mws ...FunctionMiddleware) *FunctionSet {
	s.middleware = append(s.middleware, mws...)
	return s
}

// Get returns the tool registered under name.
func (s *FunctionSet) Get(name string) (Tool, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (s *FunctionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Definitions returns the wire declarations of the registered tools in
// registration order.
func (s *FunctionSet) Definitions() []ToolDefinition {
	if s.Len() == 0 {
		return nil
	}
	defs := make([]ToolDefinition, 0, len(s.order))
	for _, name := range s.order {
		defs = append(defs, FunctionToolDefinition(s.tools[name]))
	}
	return defs
}

// Execute runs the local function named by call and returns its output.
// Strings are sent verbatim, other results JSON-encoded.
func (s *FunctionSet) Execute(ctx context.Context, call RequiredToolCall) (ToolOutput, error) {
	name, args := call.Name, call.Arguments
	if call.Function != nil {
		name, args = call.Function.Name, call.Function.Arguments
	}

	tool, ok := s.Get(name)
	if !ok {
		return ToolOutput{}, &ToolError{ToolName: name, Message: "function is not registered", Err: ErrUnknownTool}
	}

	var raw json.RawMessage
	if args != "" {
		raw = json.RawMessage(args)
	}
	handler := func(ctx context.Context, t Tool, a json.RawMessage) (any, error) {
		return t.Invoke(ctx, a)
	}
	result, err := chainFunctionMiddleware(handler, s.middleware...)(ctx, tool, raw)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return ToolOutput{}, err
		}
		return ToolOutput{}, &ToolError{ToolName: name, Message: err.Error(), Err: fmt.Errorf("%w: %w", ErrToolExecution, err)}
	}

	out, err := encodeOutput(result)
	if err != nil {
		return ToolOutput{}, &ToolError{ToolName: name, Message: "encode result: " + err.Error(), Err: ErrToolExecution}
	}
	return ToolOutput{ToolCallID: call.ID, Output: out}, nil
}

// ExecuteAll runs every function call. A call that cannot be resolved or
// fails is answered with an "error: ..." output so the run can progress.
func (s *FunctionSet) ExecuteAll(ctx context.Context, calls []RequiredToolCall) []ToolOutput {
	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		out, err := s.Execute(ctx, call)
		if err != nil {
			slog.WarnContext(ctx, "tool call failed", "call_id", call.ID, "error", err)
			out = ToolOutput{ToolCallID: call.ID, Output: "error: " + err.Error()}
		}
		outputs = append(outputs, out)
	}
	return outputs
}

func encodeOutput(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case json.RawMessage:
		return string(x), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LoggingMiddleware returns a [FunctionMiddleware] that logs every local
// function invocation using slog.
func LoggingMiddleware(logger *slog.Logger) FunctionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			logger.DebugContext(ctx, "function invoked", "function", tool.Name(), "arguments", string(args))

			result, err := next(ctx, tool, args)

			duration := time.Since(start)
			if err != nil {
				logger.WarnContext(ctx, "function failed",
					"function", tool.Name(),
					"duration", duration,
					"error", err,
				)
				return nil, err
			}
			logger.InfoContext(ctx, "function completed",
				"function", tool.Name(),
				"duration", duration,
			)
			return result, nil
		}
	}
}
