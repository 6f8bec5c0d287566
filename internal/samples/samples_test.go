// Copyright (c) Microsoft. All rights reserved.

package samples_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/inference"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/fakeagents"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/metrics"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/samples"
)

// emulatorEnv returns an Env wired to a fresh emulator.
func emulatorEnv(t *testing.T) (samples.Env, *fakeagents.Server, *bytes.Buffer) {
	t.Helper()
	emu := fakeagents.New()
	srv := httptest.NewServer(emu)
	t.Cleanup(srv.Close)

	cfg, err := (*config.Config)(nil).EmulatorDefaults(srv.URL+fakeagents.ProjectPath, srv.URL)
	require.NoError(t, err)

	client, err := agents.NewClient(cfg.ProjectEndpoint, fakeagents.Credential{}, &agents.ClientOptions{
		ClientOptions:                   azcore.ClientOptions{Retry: policy.RetryOptions{MaxRetries: -1}},
		InsecureAllowCredentialWithHTTP: true,
	})
	require.NoError(t, err)

	chat := inference.New(cfg.InferenceEndpoint,
		inference.WithModel(cfg.ModelDeploymentName),
		inference.WithAzureCredential(fakeagents.Credential{}),
	)

	var out bytes.Buffer
	return samples.Env{
		Agents:       client,
		Inference:    chat,
		Config:       cfg,
		Out:          &out,
		Metrics:      metrics.NewCollector(),
		PollInterval: time.Millisecond,
	}, emu, &out
}

func TestCatalog(t *testing.T) {
	want := []string{
		"additional-messages", "azure-ai-search", "azure-functions", "basic-agent",
		"bing-grounding", "browser-automation", "code-interpreter", "connected-agent",
		"fabric", "file-search", "functions", "image-file-input", "image-url-input",
		"inference", "mcp", "message-attachment", "openapi", "openapi-connection",
		"sharepoint", "streaming",
	}
	var names []string
	for _, s := range samples.Catalog() {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.Description, s.Name)
		assert.NotNil(t, s.Run, s.Name)
		assert.Contains(t, s.Requires, config.ModelDeploymentName, s.Name)
	}
	assert.Equal(t, want, names)

	s, ok := samples.Lookup("mcp")
	require.True(t, ok)
	assert.Contains(t, s.Requires, config.MCPServerURL)
	_, ok = samples.Lookup("nope")
	assert.False(t, ok)
}

// TestEverySampleRunsAgainstEmulator runs the whole catalog to completion.
func TestEverySampleRunsAgainstEmulator(t *testing.T) {
	env, emu, out := emulatorEnv(t)
	runner := samples.NewRunner(env)

	results, err := runner.Run(context.Background(), nil, 4)
	require.NoError(t, err)
	require.Len(t, results, len(samples.Catalog()))
	for _, r := range results {
		assert.NoError(t, r.Err, r.Name)
	}

	for _, kind := range []string{"agents", "threads", "files", "vector_stores"} {
		assert.Zero(t, emu.Len(kind), "%s left behind", kind)
	}

	text := out.String()
	for _, want := range []string{
		"=== basic-agent ===",
		"assistant: You said: Hello, tell me a joke",
		"fetch_weather returned {\"weather\":\"Weather data not available for this location.\"}",
		"URL Citation: [Search results]",
		"File Citation:",
		"code_interpreter input:",
		"Approval for search_azure_rest_api_code on github: true",
		"I looked at 1 image(s).",
		"I read 1 attached file(s).",
		"You said: How many feet are in a mile?",
		"You said: Write me a poem about flowers",
		"--- thread.run.completed ---",
	} {
		assert.Contains(t, text, want)
	}

	n, err := testutil.GatherAndCount(env.Metrics.Registry(), "foundry_samples_sample_runs_total")
	require.NoError(t, err)
	assert.Equal(t, len(results), n)
}

func TestRunner_SelectedSamples(t *testing.T) {
	env, _, out := emulatorEnv(t)
	results, err := samples.NewRunner(env).Run(context.Background(), []string{"streaming", "basic-agent"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "streaming", results[0].Name)
	assert.Equal(t, "basic-agent", results[1].Name)
	assert.Less(t, strings.Index(out.String(), "=== streaming ==="), strings.Index(out.String(), "=== basic-agent ==="))
}

func TestRunner_UnknownSample(t *testing.T) {
	env, _, _ := emulatorEnv(t)
	_, err := samples.NewRunner(env).Run(context.Background(), []string{"basic-agent", "does-not-exist"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestRunner_MissingConfigSkips(t *testing.T) {
	env, emu, _ := emulatorEnv(t)
	called := false
	catalog := []samples.Sample{{
		Name:     "needs-secret",
		Requires: []string{config.ProjectEndpoint, "FOUNDRY_SAMPLES_TEST_UNSET_KEY"},
		Run: func(context.Context, *samples.Env) error {
			called = true
			return nil
		},
	}}

	results, err := samples.NewRunnerWithCatalog(env, catalog).Run(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, samples.ErrMissingConfig)
	assert.Contains(t, results[0].Err.Error(), "FOUNDRY_SAMPLES_TEST_UNSET_KEY")
	assert.True(t, results[0].Skipped())
	assert.Equal(t, metrics.OutcomeSkipped, results[0].Outcome())
	assert.False(t, called)
	assert.Zero(t, emu.Requests("POST", "/assistants"))
}

func TestRunner_MissingConfigForCatalogSample(t *testing.T) {
	env, _, _ := emulatorEnv(t)
	env.Config = nil

	results, err := samples.NewRunner(env).Run(context.Background(), []string{"fabric", "inference"}, 2)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Skipped(), r.Name)
	}
}

func TestRunner_ParallelLimit(t *testing.T) {
	env, _, _ := emulatorEnv(t)
	var running, peak atomic.Int32
	var catalog []samples.Sample
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		catalog = append(catalog, samples.Sample{
			Name: name,
			Run: func(context.Context, *samples.Env) error {
				n := running.Add(1)
				defer running.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				return nil
			},
		})
	}

	results, err := samples.NewRunnerWithCatalog(env, catalog).Run(context.Background(), nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestRunner_FailuresAndPanics(t *testing.T) {
	env, _, out := emulatorEnv(t)
	boom := errors.New("boom")
	catalog := []samples.Sample{
		{Name: "fails", Run: func(_ context.Context, env *samples.Env) error { return boom }},
		{Name: "panics", Run: func(context.Context, *samples.Env) error { panic("kaboom") }},
		{Name: "ok", Run: func(context.Context, *samples.Env) error { return nil }},
	}

	results, err := samples.NewRunnerWithCatalog(env, catalog).Run(context.Background(), nil, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.ErrorIs(t, results[0].Err, boom)
	assert.Equal(t, metrics.OutcomeFailure, results[0].Outcome())
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "kaboom")
	assert.NoError(t, results[2].Err)
	assert.Contains(t, out.String(), "=== panics ===")
}

func TestRunner_FailedRunSurfacesLastError(t *testing.T) {
	env, emu, _ := emulatorEnv(t)
	catalog := []samples.Sample{{
		Name:     "failing-run",
		Requires: []string{config.ProjectEndpoint},
		Run: func(ctx context.Context, env *samples.Env) error {
			agent, err := env.Agents.CreateAgent(ctx, agents.CreateAgentParams{Model: "gpt-4o"})
			if err != nil {
				return err
			}
			defer env.Agents.DeleteAgent(context.WithoutCancel(ctx), agent.ID)
			run, err := env.Agents.CreateThreadAndRun(ctx, agents.CreateThreadAndRunParams{
				AgentID: agent.ID,
				Thread: &agents.CreateThreadParams{Messages: []agents.CreateMessageParams{
					{Content: "[fail] this one"},
				}},
			})
			if err != nil {
				return err
			}
			defer env.Agents.DeleteThread(context.WithoutCancel(ctx), run.ThreadID)
			_, err = env.Agents.PollRun(ctx, run, &agents.PollOptions{Interval: env.PollInterval})
			return err
		},
	}}

	results, err := samples.NewRunnerWithCatalog(env, catalog).Run(context.Background(), nil, 1)
	require.NoError(t, err)
	var runErr *agents.RunError
	require.ErrorAs(t, results[0].Err, &runErr)
	assert.ErrorIs(t, results[0].Err, agents.ErrRunFailed)
	assert.Equal(t, "server_error", runErr.Code)
	assert.Zero(t, emu.Len("agents"))
}
