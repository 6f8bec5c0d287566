// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
)

// Tool is a local function the service can ask the client to run while a
// run is in requires_action.
type Tool interface {
	// Name returns the function name as declared to the agent.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the JSON Schema describing the function's input.
	Parameters() json.RawMessage

	// Invoke calls the function with the given JSON arguments.
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// FunctionTool is a concrete [Tool] backed by a Go function.
type FunctionTool struct {
	name        string
	description string
	parameters  json.RawMessage
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
}

// NewTool creates a [FunctionTool] with raw JSON schema and handler.
func NewTool(name, description string, parameters json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (any, error)) *FunctionTool {
	if len(parameters) == 0 {
		parameters = json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewTypedTool creates a [FunctionTool] that generates its JSON Schema from
// the Args type parameter and decodes the call arguments into it.
//
// Args should be a struct with json tags. The `jsonschema` struct tag adds
// schema metadata:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	    Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
//	}
func NewTypedTool[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error)) *FunctionTool {
	schema := GenerateSchema[Args]()

	wrapped := func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args Args
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, &ToolError{
					ToolName: name,
					Message:  "invalid arguments: " + err.Error(),
					Err:      ErrToolExecution,
				}
			}
		}
		return fn(ctx, args)
	}

	return NewTool(name, description, schema, wrapped)
}

func (t *FunctionTool) Name() string                { return t.name }
func (t *FunctionTool) Description() string         { return t.description }
func (t *FunctionTool) Parameters() json.RawMessage { return t.parameters }

// Invoke calls the tool's backing function.
func (t *FunctionTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	if t.fn == nil {
		return nil, &ToolError{
			ToolName: t.name,
			Message:  "tool has no implementation",
			Err:      ErrToolExecution,
		}
	}
	return t.fn(ctx, args)
}

// FunctionToolDefinition returns the wire declaration of t.
func FunctionToolDefinition(t Tool) ToolDefinition {
	return ToolDefinition{
		Type: ToolTypeFunction,
		Function: &FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// GenerateSchema builds a JSON Schema from a Go struct type using reflection.
// Supports struct tags: json (field name), jsonschema (description, required, enum).
func GenerateSchema[T any]() json.RawMessage {
	var zero T
	return generateSchemaFromType(zero)
}
