// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func TestCreateRunStream_Events(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	agent, thread := startThread(t, client, nil, "Stream me a short answer")

	stream, err := client.CreateRunStream(ctx, thread.ID, agents.CreateRunParams{AgentID: agent.ID})
	require.NoError(t, err)
	defer stream.Close()

	events, err := stream.Collect(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	names := make([]string, 0, len(events))
	var text strings.Builder
	var completed *agents.ThreadMessage
	for _, ev := range events {
		names = append(names, ev.Event)
		text.WriteString(ev.Text())
		if ev.Event == agents.EventMessageCompleted {
			completed = ev.Message
		}
	}

	assert.Equal(t, agents.EventRunCreated, names[0])
	assert.Equal(t, agents.EventDone, names[len(names)-1])
	assert.Equal(t, agents.EventRunCompleted, names[len(names)-2])
	assert.Contains(t, names, agents.EventRunStepCreated)
	assert.Contains(t, names, agents.EventMessageDelta)

	require.NotNil(t, completed)
	assert.Equal(t, "You said: Stream me a short answer", completed.Text())
	assert.Equal(t, completed.Text(), text.String(), "deltas concatenate to the final message")

	last := events[len(events)-2]
	require.NotNil(t, last.Run)
	assert.Equal(t, agents.RunStatusCompleted, last.Run.Status)
}

func TestStreamRun_Functions(t *testing.T) {
	ctx := context.Background()
	client, emu := newTestClient(t)
	tools := agents.NewToolSet().AddFunctions(weatherTool())
	agent, thread := startThread(t, client, tools, "Weather please")

	var names []string
	run, err := client.StreamRun(ctx, thread.ID, agents.CreateRunParams{AgentID: agent.ID}, &agents.StreamOptions{
		Functions: tools.Functions(),
		OnEvent:   func(ev agents.RunEvent) { names = append(names, ev.Event) },
	})
	require.NoError(t, err)
	assert.Equal(t, agents.RunStatusCompleted, run.Status)
	assert.Contains(t, names, agents.EventRunRequiresAction)
	assert.Equal(t, agents.EventDone, names[len(names)-1])
	assert.Equal(t, 1, emu.Requests("POST", "/threads/:thread_id/runs/:run_id/submit_tool_outputs"))
	assert.Contains(t, lastAssistantText(t, client, thread.ID), "get_weather returned")
}

func TestStreamRun_Approvals(t *testing.T) {
	client, _ := newTestClient(t)
	tools := agents.NewToolSet().AddMCP("github", "https://gitmcp.io/Azure/azure-rest-api-specs", nil, agents.MCPApprovalAlways)
	agent, thread := startThread(t, client, tools, "Search")

	approvals := 0
	run, err := client.StreamRun(context.Background(), thread.ID, agents.CreateRunParams{AgentID: agent.ID}, &agents.StreamOptions{
		Approve: func(ctx context.Context, call agents.RequiredToolCall) bool {
			approvals++
			return false
		},
	})
	require.NoError(t, err)
	assert.Equal(t, agents.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, approvals)
	assert.Contains(t, lastAssistantText(t, client, thread.ID), "was denied")
}

func TestStreamRun_Failures(t *testing.T) {
	tests := []struct {
		prompt string
		target error
		status agents.RunStatus
	}{
		{"stream [fail]", agents.ErrRunFailed, agents.RunStatusFailed},
		{"stream [empty-action]", agents.ErrRunCancelled, agents.RunStatusCancelling},
		{"stream [incomplete]", agents.ErrRunNotCompleted, agents.RunStatusIncomplete},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			client, _ := newTestClient(t)
			agent, thread := startThread(t, client, nil, tc.prompt)

			run, err := client.StreamRun(context.Background(), thread.ID, agents.CreateRunParams{AgentID: agent.ID}, nil)
			require.ErrorIs(t, err, tc.target)
			require.NotNil(t, run)
			assert.Equal(t, tc.status, run.Status)
		})
	}
}

func TestCreateRunStream_ServiceError(t *testing.T) {
	client, _ := newTestClient(t)
	agent := newTestAgent(t, client, agents.CreateAgentParams{})

	_, err := client.CreateRunStream(context.Background(), "thread_missing", agents.CreateRunParams{AgentID: agent.ID})
	assert.ErrorIs(t, err, agents.ErrNotFound)

	_, err = client.StreamRun(context.Background(), "thread_missing", agents.CreateRunParams{AgentID: agent.ID}, nil)
	assert.ErrorIs(t, err, agents.ErrNotFound)
}
