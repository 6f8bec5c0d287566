// Copyright (c) Microsoft. All rights reserved.

// Package agents is a client for the Azure AI Foundry Agent Service. Agents,
// threads, messages, runs, files and vector stores are server-side resources
// addressed by the IDs the service issues; the client creates, reads and
// deletes them and drives runs to completion.
//
// # Quick Start
//
//	cred, _ := azidentity.NewDefaultAzureCredential(nil)
//	client, err := agents.NewClient(os.Getenv("PROJECT_ENDPOINT"), cred, nil)
//
//	agent, _ := client.CreateAgent(ctx, agents.CreateAgentParams{
//	    Model:        "gpt-4o",
//	    Name:         "my-agent",
//	    Instructions: "You are a helpful agent.",
//	})
//	defer client.DeleteAgent(ctx, agent.ID)
//
//	thread, _ := client.CreateThread(ctx, nil)
//	client.CreateMessage(ctx, thread.ID, agents.CreateMessageParams{Content: "Hello"})
//
//	run, err := client.CreateAndProcessRun(ctx, thread.ID,
//	    agents.CreateRunParams{AgentID: agent.ID}, nil)
//
// # Runs
//
// [Client.PollRun] fetches a run at a fixed interval until it leaves the
// queued, in_progress and requires_action states. Function calls are
// resolved through a [FunctionSet]; a required action without tool calls
// cancels the run. Only a completed run returns a nil error. Failed runs
// return a [*RunError] carrying the service's last_error.
//
// [Client.StreamRun] does the same over server-sent events.
//
// # Tools
//
// A [ToolSet] collects tool definitions and resources for an agent. Local
// functions are declared with [NewTypedTool], which generates the JSON Schema
// from struct tags:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	}
//
//	tools := agents.NewToolSet().AddFunctions(
//	    agents.NewTypedTool("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (any, error) {
//	            return fetchWeather(args.Location)
//	        }),
//	)
package agents
