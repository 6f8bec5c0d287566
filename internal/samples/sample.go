// Copyright (c) Microsoft. All rights reserved.

// Package samples holds the catalog of agent service samples and a runner
// that executes them.
//
// Every sample follows the same shape: configure tools, create an agent,
// open a thread, post a message, run it to completion, print the results
// and delete what it created. Teardown is deferred so it also happens when
// a step fails.
package samples

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/inference"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/metrics"
)

// Sample is one runnable scenario.
type Sample struct {
	Name        string
	Description string

	// Requires lists the configuration keys the sample reads.
	Requires []string

	Run func(ctx context.Context, env *Env) error
}

// Env is what a sample runs against.
type Env struct {
	Agents    *agents.Client
	Inference *inference.Client
	Config    *config.Config
	Out       io.Writer
	Logger    *slog.Logger
	Metrics   *metrics.Collector

	// PollInterval is the wait between two fetches of a run.
	PollInterval time.Duration

	// Approve decides MCP tool approvals. Nil approves every call.
	Approve func(ctx context.Context, call agents.RequiredToolCall) bool
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format+"\n", args...)
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) model() string { return e.Config.ModelDeploymentName }

// pollOptions wires fs, metrics and approvals into the poll loop.
func (e *Env) pollOptions(fs *agents.FunctionSet) *agents.PollOptions {
	if fs != nil {
		fs.Use(agents.LoggingMiddleware(e.logger()), e.Metrics.FunctionMiddleware())
	}
	return &agents.PollOptions{
		Interval:  e.PollInterval,
		Functions: fs,
		Approve:   e.approve,
		OnStatus: func(run *agents.Run) {
			e.logger().Debug("run status", "run_id", run.ID, "status", run.Status)
			e.Metrics.ObserveRun(run)
		},
	}
}

func (e *Env) approve(ctx context.Context, call agents.RequiredToolCall) bool {
	ok := e.Approve == nil || e.Approve(ctx, call)
	e.printf("Approval for %s on %s: %t", call.Name, call.ServerLabel, ok)
	return ok
}

// teardown deletes a resource once the sample is done, even after ctx was
// cancelled. Failures are logged.
func (e *Env) teardown(ctx context.Context, kind, id string, del func(context.Context, string) error) {
	if err := del(context.WithoutCancel(ctx), id); err != nil {
		e.logger().Warn("teardown failed", "kind", kind, "id", id, "error", err)
		return
	}
	e.printf("Deleted %s %s", kind, id)
}

// createAgent creates an agent with tools and schedules its deletion.
func (e *Env) createAgent(ctx context.Context, name, instructions string, tools *agents.ToolSet) (*agents.Agent, func(), error) {
	params := agents.CreateAgentParams{
		Model:        e.model(),
		Name:         name,
		Instructions: instructions,
	}
	if tools != nil {
		params.Tools = tools.Definitions()
		params.ToolResources = tools.Resources()
	}
	agent, err := e.Agents.CreateAgent(ctx, params)
	if err != nil {
		return nil, func() {}, err
	}
	e.printf("Created agent, ID: %s", agent.ID)
	return agent, func() { e.teardown(ctx, "agent", agent.ID, e.Agents.DeleteAgent) }, nil
}

// createThread opens a thread and schedules its deletion.
func (e *Env) createThread(ctx context.Context) (*agents.Thread, func(), error) {
	thread, err := e.Agents.CreateThread(ctx, nil)
	if err != nil {
		return nil, func() {}, err
	}
	e.printf("Created thread, ID: %s", thread.ID)
	return thread, func() { e.teardown(ctx, "thread", thread.ID, e.Agents.DeleteThread) }, nil
}

// ask posts msg to a new thread, runs agent on it and prints the outcome.
func (e *Env) ask(ctx context.Context, agent *agents.Agent, msg agents.CreateMessageParams, fs *agents.FunctionSet) (*agents.Run, error) {
	thread, done, err := e.createThread(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	m, err := e.Agents.CreateMessage(ctx, thread.ID, msg)
	if err != nil {
		return nil, err
	}
	e.printf("Created message, ID: %s", m.ID)

	run, err := e.Agents.CreateAndProcessRun(ctx, thread.ID, agents.CreateRunParams{AgentID: agent.ID}, e.pollOptions(fs))
	if run != nil {
		e.printf("Run finished with status: %s", run.Status)
	}
	if err != nil {
		return run, err
	}
	if err := e.printSteps(ctx, run); err != nil {
		return run, err
	}
	return run, e.printMessages(ctx, thread.ID)
}

// printMessages prints the thread in chronological order with citations.
func (e *Env) printMessages(ctx context.Context, threadID string) error {
	msgs, err := e.Agents.ListAllMessages(ctx, threadID, &agents.ListMessagesOptions{
		ListOptions: agents.ListOptions{Order: agents.OrderAscending},
	})
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if text := m.Text(); text != "" {
			e.printf("%s: %s", m.Role, text)
		}
		for _, a := range m.Annotations() {
			switch {
			case a.URLCitation != nil:
				e.printf("URL Citation: [%s](%s)", a.URLCitation.Title, a.URLCitation.URL)
			case a.FileCitation != nil:
				e.printf("File Citation: %s (file %s)", a.Text, a.FileCitation.FileID)
			}
		}
	}
	if last := agents.LastTextByRole(msgs, agents.RoleAssistant); last == nil {
		return fmt.Errorf("%w: thread %s has no assistant reply", agents.ErrInvalidResponse, threadID)
	}
	return nil
}

// printSteps prints the tool calls a run recorded.
func (e *Env) printSteps(ctx context.Context, run *agents.Run) error {
	steps, err := e.Agents.ListRunSteps(ctx, run.ThreadID, run.ID, &agents.ListOptions{Order: agents.OrderAscending})
	if err != nil {
		return err
	}
	for _, st := range steps.Data {
		e.printf("Step %s (%s): %s", st.ID, st.Type, st.Status)
		for _, call := range st.StepDetails.ToolCalls {
			switch {
			case call.Function != nil:
				e.printf("  function %s(%s) -> %s", call.Function.Name, call.Function.Arguments, call.Function.Output)
			case call.CodeInterpreter != nil:
				e.printf("  code_interpreter input: %s", call.CodeInterpreter.Input)
				for _, out := range call.CodeInterpreter.Outputs {
					if out.Logs != "" {
						e.printf("  code_interpreter logs: %s", out.Logs)
					}
				}
			default:
				e.printf("  %s: %s", call.Type, call.Raw)
			}
		}
	}
	return nil
}

// baseRequires are read by every agent sample.
var baseRequires = []string{config.ProjectEndpoint, config.ModelDeploymentName}

func requires(keys ...string) []string {
	return slices.Concat(baseRequires, keys)
}

// catalog is sorted by name at init.
var catalog []Sample

func register(s Sample) {
	catalog = append(catalog, s)
	slices.SortFunc(catalog, func(a, b Sample) int { return strings.Compare(a.Name, b.Name) })
}

// Catalog returns every registered sample, sorted by name.
func Catalog() []Sample {
	return slices.Clone(catalog)
}

// Lookup returns the sample registered under name.
func Lookup(name string) (Sample, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}
