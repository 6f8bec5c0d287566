// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/fakeagents"
)

const testModel = "gpt-4o"

func testClientOptions() *agents.ClientOptions {
	return &agents.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
		InsecureAllowCredentialWithHTTP: true,
	}
}

// newTestClient returns a client talking to a fresh emulator.
func newTestClient(t *testing.T, opts ...fakeagents.Option) (*agents.Client, *fakeagents.Server) {
	t.Helper()
	emu := fakeagents.New(opts...)
	srv := httptest.NewServer(emu)
	t.Cleanup(srv.Close)

	client, err := agents.NewClient(srv.URL+fakeagents.ProjectPath, fakeagents.Credential{}, testClientOptions())
	require.NoError(t, err)
	return client, emu
}

func newTestAgent(t *testing.T, client *agents.Client, params agents.CreateAgentParams) *agents.Agent {
	t.Helper()
	if params.Model == "" {
		params.Model = testModel
	}
	agent, err := client.CreateAgent(context.Background(), params)
	require.NoError(t, err)
	return agent
}

func TestNewClient_Validation(t *testing.T) {
	_, err := agents.NewClient("not a url", fakeagents.Credential{}, nil)
	assert.ErrorIs(t, err, agents.ErrInvalidRequest)

	_, err = agents.NewClient("https://example.services.ai.azure.com/api/projects/p", nil, nil)
	assert.ErrorIs(t, err, agents.ErrInvalidRequest)

	client, err := agents.NewClient(" https://example.services.ai.azure.com/api/projects/p/ ", fakeagents.Credential{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.services.ai.azure.com/api/projects/p", client.Endpoint())
}

func TestClient_AgentLifecycle(t *testing.T) {
	ctx := context.Background()
	client, emu := newTestClient(t)

	agent := newTestAgent(t, client, agents.CreateAgentParams{
		Name:         "my-agent",
		Instructions: "You are a helpful agent",
		Metadata:     map[string]string{"sample": "basics"},
	})
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, testModel, agent.Model)

	got, err := client.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "my-agent", got.Name)
	assert.Equal(t, "basics", got.Metadata["sample"])

	updated, err := client.UpdateAgent(ctx, agent.ID, agents.UpdateAgentParams{Instructions: "Be brief"})
	require.NoError(t, err)
	assert.Equal(t, "Be brief", updated.Instructions)
	assert.Equal(t, "my-agent", updated.Name)

	second := newTestAgent(t, client, agents.CreateAgentParams{Name: "second"})
	page, err := client.ListAgents(ctx, &agents.ListOptions{Limit: 1, Order: agents.OrderAscending})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, agent.ID, page.Data[0].ID)
	assert.True(t, page.HasMore)

	page, err = client.ListAgents(ctx, &agents.ListOptions{Order: agents.OrderAscending, After: page.LastID})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, second.ID, page.Data[0].ID)
	assert.False(t, page.HasMore)

	require.NoError(t, client.DeleteAgent(ctx, agent.ID))
	assert.Equal(t, 1, emu.Len("agents"))

	_, err = client.GetAgent(ctx, agent.ID)
	assert.ErrorIs(t, err, agents.ErrNotFound)
	var svcErr *agents.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 404, svcErr.StatusCode)
	assert.Equal(t, "not_found", svcErr.Code)

	assert.ErrorIs(t, client.DeleteAgent(ctx, agent.ID), agents.ErrNotFound)
}

func TestClient_CreateAgentRequiresModel(t *testing.T) {
	client, emu := newTestClient(t)
	_, err := client.CreateAgent(context.Background(), agents.CreateAgentParams{Name: "no-model"})
	assert.ErrorIs(t, err, agents.ErrInvalidRequest)
	assert.Zero(t, emu.Requests("POST", "/assistants"), "validation happens before the request")
}

func TestClient_InvalidToolRejected(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.CreateAgent(context.Background(), agents.CreateAgentParams{
		Model: testModel,
		Tools: []agents.ToolDefinition{{Type: agents.ToolTypeMCP, ServerLabel: "github"}},
	})
	assert.ErrorIs(t, err, agents.ErrInvalidRequest)
}

func TestClient_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, fakeagents.WithToken("another-token"))
	_, err := client.ListAgents(context.Background(), nil)
	assert.ErrorIs(t, err, agents.ErrAuth)
	assert.ErrorIs(t, err, agents.ErrService)
}

func TestClient_RateLimitedPipeline(t *testing.T) {
	emu := fakeagents.New()
	srv := httptest.NewServer(emu)
	defer srv.Close()

	opts := testClientOptions()
	opts.RequestsPerSecond = 1000
	opts.APIVersion = "2025-05-15-preview"
	client, err := agents.NewClient(srv.URL+fakeagents.ProjectPath, fakeagents.Credential{}, opts)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := client.ListAgents(context.Background(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, emu.Requests("GET", "/assistants"))
}

func TestClient_CancelledContext(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListAgents(ctx, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, agents.ErrService)
}

func TestClient_ThreadLifecycle(t *testing.T) {
	ctx := context.Background()
	client, emu := newTestClient(t)

	thread, err := client.CreateThread(ctx, &agents.CreateThreadParams{
		Messages: []agents.CreateMessageParams{{Content: "hello"}},
		Metadata: map[string]string{"k": "v"},
	})
	require.NoError(t, err)

	got, err := client.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, "v", got.Metadata["k"])

	msgs, err := client.ListAllMessages(ctx, thread.ID, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text())
	assert.Equal(t, agents.RoleUser, msgs[0].Role)

	empty, err := client.CreateThread(ctx, nil)
	require.NoError(t, err)
	assert.NotEqual(t, thread.ID, empty.ID)

	require.NoError(t, client.DeleteThread(ctx, thread.ID))
	assert.Equal(t, 1, emu.Len("threads"))
	_, err = client.GetThread(ctx, thread.ID)
	assert.ErrorIs(t, err, agents.ErrNotFound)
}
