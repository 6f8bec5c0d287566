// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func TestNewTool_BasicInvocation(t *testing.T) {
	tool := agents.NewTool("greet", "Says hello", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return "hello!", nil
		},
	)

	if tool.Name() != "greet" {
		t.Errorf("Name = %q", tool.Name())
	}
	if tool.Description() != "Says hello" {
		t.Errorf("Description = %q", tool.Description())
	}

	result, err := tool.Invoke(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != "hello!" {
		t.Errorf("result = %v", result)
	}
}

func TestNewTool_DefaultParameters(t *testing.T) {
	tool := agents.NewTool("noop", "No arguments", nil, nil)
	if string(tool.Parameters()) != `{"type":"object","properties":{}}` {
		t.Errorf("Parameters = %s", tool.Parameters())
	}

	_, err := tool.Invoke(context.Background(), nil)
	if !errors.Is(err, agents.ErrToolExecution) {
		t.Fatalf("err = %v, want ErrToolExecution", err)
	}
}

func TestNewTypedTool(t *testing.T) {
	type args struct {
		Name string `json:"name" jsonschema:"description=Person name,required"`
	}

	tool := agents.NewTypedTool("greet", "Greet someone",
		func(ctx context.Context, a args) (any, error) {
			return "Hello, " + a.Name + "!", nil
		},
	)

	var schema map[string]any
	if err := json.Unmarshal(tool.Parameters(), &schema); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("schema type = %v", schema["type"])
	}

	result, err := tool.Invoke(context.Background(), json.RawMessage(`{"name":"Alice"}`))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != "Hello, Alice!" {
		t.Errorf("result = %v", result)
	}

	// Empty arguments decode to the zero value.
	result, err = tool.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("invoke without args: %v", err)
	}
	if result != "Hello, !" {
		t.Errorf("result = %v", result)
	}
}

func TestNewTypedTool_InvalidArgs(t *testing.T) {
	type args struct {
		Count int `json:"count"`
	}

	tool := agents.NewTypedTool("counter", "Count things",
		func(ctx context.Context, a args) (any, error) {
			return a.Count, nil
		},
	)

	_, err := tool.Invoke(context.Background(), json.RawMessage(`{"count":"not a number"}`))
	if err == nil {
		t.Fatal("expected error for invalid args")
	}
	var toolErr *agents.ToolError
	if !errors.As(err, &toolErr) || toolErr.ToolName != "counter" {
		t.Errorf("err = %v, want ToolError for counter", err)
	}
}

func TestFunctionToolDefinition(t *testing.T) {
	tool := agents.NewTypedTool("get_weather", "Weather lookup",
		func(ctx context.Context, a weatherArgs) (any, error) { return nil, nil })

	def := agents.FunctionToolDefinition(tool)
	if def.Type != agents.ToolTypeFunction {
		t.Errorf("Type = %q", def.Type)
	}
	if def.Function == nil || def.Function.Name != "get_weather" || def.Function.Description != "Weather lookup" {
		t.Fatalf("Function = %+v", def.Function)
	}

	b, err := json.Marshal(def)
	if err != nil {
		t.Fatal(err)
	}
	var wire struct {
		Type     string `json:"type"`
		Function struct {
			Name       string          `json:"name"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"function"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		t.Fatal(err)
	}
	if wire.Type != "function" || wire.Function.Name != "get_weather" || len(wire.Function.Parameters) == 0 {
		t.Errorf("wire = %s", b)
	}
}
