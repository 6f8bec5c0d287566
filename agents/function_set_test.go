// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func functionCall(id, name, args string) agents.RequiredToolCall {
	return agents.RequiredToolCall{
		ID:       id,
		Type:     "function",
		Function: &agents.RequiredFunctionCall{Name: name, Arguments: args},
	}
}

func TestFunctionSet_MiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) agents.FunctionMiddleware {
		return func(next agents.FunctionHandler) agents.FunctionHandler {
			return func(ctx context.Context, tool agents.Tool, args json.RawMessage) (any, error) {
				order = append(order, name+"-before")
				res, err := next(ctx, tool, args)
				order = append(order, name+"-after")
				return res, err
			}
		}
	}

	set := agents.NewFunctionSet(agents.NewTool("echo", "", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			order = append(order, "tool")
			return "ok", nil
		},
	)).Use(mw("mw1"), mw("mw2"))

	if _, err := set.Execute(context.Background(), functionCall("c1", "echo", "{}")); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// First middleware should be outermost
	expected := []string{"mw1-before", "mw2-before", "tool", "mw2-after", "mw1-after"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("order = %v, want %v", order, expected)
	}
}

func TestFunctionSet_ExecuteEncodesOutput(t *testing.T) {
	type result struct {
		Temp int `json:"temp"`
	}
	set := agents.NewFunctionSet(
		agents.NewTool("text", "", nil, func(ctx context.Context, _ json.RawMessage) (any, error) { return "sunny", nil }),
		agents.NewTool("struct", "", nil, func(ctx context.Context, _ json.RawMessage) (any, error) { return result{Temp: 21}, nil }),
		agents.NewTool("raw", "", nil, func(ctx context.Context, _ json.RawMessage) (any, error) { return json.RawMessage(`[1,2]`), nil }),
	)

	tests := map[string]string{"text": "sunny", "struct": `{"temp":21}`, "raw": `[1,2]`}
	for name, want := range tests {
		out, err := set.Execute(context.Background(), functionCall("call_"+name, name, ""))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if out.ToolCallID != "call_"+name || out.Output != want {
			t.Errorf("%s: output = %+v, want %q", name, out, want)
		}
	}
}

func TestFunctionSet_MCPStyleCall(t *testing.T) {
	var got string
	set := agents.NewFunctionSet(agents.NewTypedTool("lookup", "",
		func(ctx context.Context, a struct {
			Query string `json:"query"`
		}) (any, error) {
			got = a.Query
			return "done", nil
		}))

	out, err := set.Execute(context.Background(), agents.RequiredToolCall{ID: "c9", Name: "lookup", Arguments: `{"query":"go"}`})
	if err != nil {
		t.Fatal(err)
	}
	if got != "go" || out.Output != "done" {
		t.Errorf("query = %q, output = %q", got, out.Output)
	}
}

func TestFunctionSet_Errors(t *testing.T) {
	boom := errors.New("boom")
	set := agents.NewFunctionSet(agents.NewTool("fails", "", nil,
		func(ctx context.Context, _ json.RawMessage) (any, error) { return nil, boom }))

	_, err := set.Execute(context.Background(), functionCall("c1", "missing", "{}"))
	if !errors.Is(err, agents.ErrUnknownTool) {
		t.Errorf("unknown: err = %v", err)
	}

	_, err = set.Execute(context.Background(), functionCall("c2", "fails", "{}"))
	if !errors.Is(err, agents.ErrToolExecution) || !errors.Is(err, boom) {
		t.Errorf("failing: err = %v", err)
	}
	var toolErr *agents.ToolError
	if !errors.As(err, &toolErr) || toolErr.ToolName != "fails" {
		t.Errorf("ToolError = %+v", toolErr)
	}

	outputs := set.ExecuteAll(context.Background(), []agents.RequiredToolCall{
		functionCall("c1", "missing", "{}"),
		functionCall("c2", "fails", "{}"),
	})
	if len(outputs) != 2 {
		t.Fatalf("outputs = %+v", outputs)
	}
	for _, out := range outputs {
		if !strings.HasPrefix(out.Output, "error: ") {
			t.Errorf("output for %s = %q, want error prefix", out.ToolCallID, out.Output)
		}
	}
}

func TestFunctionSet_NilSet(t *testing.T) {
	var set *agents.FunctionSet
	if set.Len() != 0 {
		t.Errorf("Len = %d", set.Len())
	}
	outputs := set.ExecuteAll(context.Background(), []agents.RequiredToolCall{functionCall("c1", "any", "{}")})
	if len(outputs) != 1 || !strings.Contains(outputs[0].Output, "not registered") {
		t.Errorf("outputs = %+v", outputs)
	}
}

func TestFunctionSet_ReplaceKeepsOrder(t *testing.T) {
	set := agents.NewFunctionSet(
		agents.NewTool("a", "first", nil, nil),
		agents.NewTool("b", "", nil, nil),
	)
	set.Add(agents.NewTool("a", "second", nil, nil))

	defs := set.Definitions()
	if set.Len() != 2 || len(defs) != 2 {
		t.Fatalf("Len = %d, defs = %d", set.Len(), len(defs))
	}
	if defs[0].Function.Name != "a" || defs[0].Function.Description != "second" || defs[1].Function.Name != "b" {
		t.Errorf("defs = %+v, %+v", defs[0].Function, defs[1].Function)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	set := agents.NewFunctionSet(agents.NewTool("echo", "", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) { return "ok", nil },
	)).Use(agents.LoggingMiddleware(logger))

	if _, err := set.Execute(context.Background(), functionCall("c1", "echo", `{"x":1}`)); err != nil {
		t.Fatal(err)
	}
	logs := buf.String()
	for _, want := range []string{`"msg":"function invoked"`, `"msg":"function completed"`, `"function":"echo"`} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s:\n%s", want, logs)
		}
	}
}
