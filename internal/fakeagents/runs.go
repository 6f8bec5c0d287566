// Copyright (c) Microsoft. All rights reserved.

package fakeagents

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

type runState struct {
	run       agents.Run
	resources *agents.ToolResources
	steps     []*agents.RunStep

	// pending is the action the run waits on. functions and approvals
	// record the answers submitted so far.
	pending   *agents.RequiredAction
	functions []agents.RunStepToolCall
	approvals []agents.ToolApproval

	functionsDone bool
	approvalsDone bool
	trigger       string
}

type createRunBody struct {
	agents.CreateRunParams
	ToolResources *agents.ToolResources `json:"tool_resources,omitempty"`
}

func (s *Server) createRun(c echo.Context) error {
	var p createRunBody
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid run body: " + err.Error())
	}
	s.mu.Lock()
	ts, err := s.thread(c.Param("thread_id"))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	rs, err := s.startRun(ts, p.CreateRunParams, p.ToolResources)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if p.Stream {
		return s.streamRun(c, rs)
	}
	return s.writeRun(c, rs)
}

func (s *Server) createThreadAndRun(c echo.Context) error {
	var p agents.CreateThreadAndRunParams
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid run body: " + err.Error())
	}
	s.mu.Lock()
	var tp agents.CreateThreadParams
	if p.Thread != nil {
		tp = *p.Thread
	}
	ts, err := s.newThread(tp)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	rs, err := s.startRun(ts, agents.CreateRunParams{
		AgentID:      p.AgentID,
		Model:        p.Model,
		Instructions: p.Instructions,
		Tools:        p.Tools,
		Metadata:     p.Metadata,
	}, p.ToolResources)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if p.Stream {
		return s.streamRun(c, rs)
	}
	return s.writeRun(c, rs)
}

// startRun creates a queued run. Callers hold s.mu.
func (s *Server) startRun(ts *threadState, p agents.CreateRunParams, resources *agents.ToolResources) (*runState, error) {
	agent, ok := s.agents[p.AgentID]
	if !ok {
		return nil, notFound("assistant", p.AgentID)
	}
	if s.activeRun(ts) != nil {
		return nil, badRequest("thread " + ts.thread.ID + " already has an active run")
	}
	if err := validateTools(p.Tools); err != nil {
		return nil, err
	}
	for _, m := range p.AdditionalMessages {
		if _, err := s.appendMessage(ts, m, "", ""); err != nil {
			return nil, err
		}
	}

	rs := &runState{run: agents.Run{
		ID:           newID("run_"),
		Object:       "thread.run",
		ThreadID:     ts.thread.ID,
		AgentID:      agent.ID,
		Status:       agents.RunStatusQueued,
		Model:        firstNonEmpty(p.Model, agent.Model),
		Instructions: firstNonEmpty(p.Instructions, agent.Instructions),
		Tools:        agent.Tools,
		CreatedAt:    s.now(),
		Metadata:     p.Metadata,
	}}
	if p.AdditionalInstructions != "" {
		rs.run.Instructions += "\n" + p.AdditionalInstructions
	}
	if p.Tools != nil {
		rs.run.Tools = p.Tools
	}
	rs.resources = mergeResources(agent.ToolResources, ts.thread.ToolResources, resources)
	rs.trigger = lastUserText(ts)

	s.runs[rs.run.ID] = rs
	ts.runs = append(ts.runs, rs.run.ID)
	return rs, nil
}

// activeRun returns the run of ts that has not reached a terminal state.
func (s *Server) activeRun(ts *threadState) *runState {
	for _, id := range ts.runs {
		if rs, ok := s.runs[id]; ok && (rs.run.Status.Active() || rs.run.Status == agents.RunStatusCancelling) {
			return rs
		}
	}
	return nil
}

func (s *Server) writeRun(c echo.Context, rs *runState) error {
	s.mu.Lock()
	run := rs.run
	s.mu.Unlock()
	return c.JSON(http.StatusOK, run)
}

func (s *Server) lookupRun(c echo.Context) (*threadState, *runState, error) {
	ts, err := s.thread(c.Param("thread_id"))
	if err != nil {
		return nil, nil, err
	}
	rs, ok := s.runs[c.Param("run_id")]
	if !ok || rs.run.ThreadID != ts.thread.ID {
		return nil, nil, notFound("run", c.Param("run_id"))
	}
	return ts, rs, nil
}

func (s *Server) getRun(c echo.Context) error {
	s.mu.Lock()
	ts, rs, err := s.lookupRun(c)
	if err == nil {
		s.advance(ts, rs)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.writeRun(c, rs)
}

func (s *Server) listRuns(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.thread(c.Param("thread_id"))
	if err != nil {
		return err
	}
	runs := make([]agents.Run, 0, len(ts.runs))
	for _, id := range ts.runs {
		runs = append(runs, s.runs[id].run)
	}
	page, err := paginate(c, runs, func(r agents.Run) string { return r.ID })
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) cancelRun(c echo.Context) error {
	s.mu.Lock()
	_, rs, err := s.lookupRun(c)
	if err == nil && !rs.run.Status.Active() {
		err = badRequest("cannot cancel run with status '" + string(rs.run.Status) + "'")
	}
	if err == nil {
		rs.run.Status = agents.RunStatusCancelling
		rs.run.RequiredAction = nil
		rs.pending = nil
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.writeRun(c, rs)
}

type submitBody struct {
	ToolOutputs   []agents.ToolOutput   `json:"tool_outputs"`
	ToolApprovals []agents.ToolApproval `json:"tool_approvals"`
	Stream        bool                  `json:"stream"`
}

func (s *Server) submitToolOutputs(c echo.Context) error {
	var p submitBody
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid submit body: " + err.Error())
	}
	s.mu.Lock()
	_, rs, err := s.lookupRun(c)
	if err == nil {
		err = rs.resolve(p.ToolOutputs, p.ToolApprovals)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if p.Stream {
		return s.streamRun(c, rs)
	}
	return s.writeRun(c, rs)
}

// resolve records the answers to the pending action and resumes the run.
func (rs *runState) resolve(outputs []agents.ToolOutput, approvals []agents.ToolApproval) error {
	if rs.run.Status != agents.RunStatusRequiresAction || rs.pending == nil {
		return badRequest("run " + rs.run.ID + " is not waiting for tool outputs")
	}
	calls := rs.pending.ToolCalls()
	want := make(map[string]agents.RequiredToolCall, len(calls))
	for _, call := range calls {
		want[call.ID] = call
	}

	switch rs.pending.Type {
	case agents.RequiredActionSubmitToolOutputs:
		if len(outputs) != len(calls) {
			return badRequest(fmt.Sprintf("expected %d tool outputs, got %d", len(calls), len(outputs)))
		}
		for _, out := range outputs {
			call, ok := want[out.ToolCallID]
			if !ok {
				return badRequest("unknown tool call id '" + out.ToolCallID + "'")
			}
			rs.functions = append(rs.functions, agents.RunStepToolCall{
				ID:   call.ID,
				Type: "function",
				Function: &agents.RunStepFunctionCall{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
					Output:    out.Output,
				},
			})
		}
		rs.functionsDone = true
	case agents.RequiredActionSubmitToolApproval:
		if len(approvals) != len(calls) {
			return badRequest(fmt.Sprintf("expected %d tool approvals, got %d", len(calls), len(approvals)))
		}
		for _, a := range approvals {
			if _, ok := want[a.ToolCallID]; !ok {
				return badRequest("unknown tool call id '" + a.ToolCallID + "'")
			}
		}
		rs.approvals = append(rs.approvals, approvals...)
		rs.approvalsDone = true
	}
	rs.pending = nil
	rs.run.RequiredAction = nil
	rs.run.Status = agents.RunStatusQueued
	return nil
}

// advance moves rs one state forward. Callers hold s.mu.
func (s *Server) advance(ts *threadState, rs *runState) {
	run := &rs.run
	switch run.Status {
	case agents.RunStatusQueued:
		run.Status = agents.RunStatusInProgress
		if run.StartedAt == 0 {
			run.StartedAt = s.now()
		}
	case agents.RunStatusCancelling:
		run.Status = agents.RunStatusCancelled
		run.CancelledAt = s.now()
	case agents.RunStatusInProgress:
		s.step(ts, rs)
	}
}

// step decides what an in-progress run does next.
func (s *Server) step(ts *threadState, rs *runState) {
	run := &rs.run
	switch {
	case strings.Contains(rs.trigger, "[fail]"):
		run.Status = agents.RunStatusFailed
		run.FailedAt = s.now()
		run.LastError = &agents.RunLastError{Code: "server_error", Message: "Sorry, something went wrong."}
		return
	case strings.Contains(rs.trigger, "[expire]"):
		run.Status = agents.RunStatusExpired
		return
	case strings.Contains(rs.trigger, "[incomplete]"):
		run.Status = agents.RunStatusIncomplete
		run.IncompleteDetails = &agents.IncompleteDetails{Reason: "max_completion_tokens"}
		return
	case strings.Contains(rs.trigger, "[empty-action]") && !rs.functionsDone:
		rs.require(&agents.RequiredAction{
			Type:              agents.RequiredActionSubmitToolOutputs,
			SubmitToolOutputs: &agents.RequiredToolCalls{ToolCalls: []agents.RequiredToolCall{}},
		})
		return
	}

	if !rs.functionsDone {
		if calls := functionCalls(run.Tools); len(calls) > 0 {
			rs.require(&agents.RequiredAction{
				Type:              agents.RequiredActionSubmitToolOutputs,
				SubmitToolOutputs: &agents.RequiredToolCalls{ToolCalls: calls},
			})
			return
		}
	}
	if !rs.approvalsDone {
		if calls := approvalCalls(run.Tools, rs.resources); len(calls) > 0 {
			rs.require(&agents.RequiredAction{
				Type:               agents.RequiredActionSubmitToolApproval,
				SubmitToolApproval: &agents.RequiredToolCalls{ToolCalls: calls},
			})
			return
		}
	}
	s.complete(ts, rs)
}

func (rs *runState) require(action *agents.RequiredAction) {
	rs.pending = action
	rs.run.RequiredAction = action
	rs.run.Status = agents.RunStatusRequiresAction
}

// functionCalls asks for one call per declared function tool, with
// arguments derived from the declared schema.
func functionCalls(tools []agents.ToolDefinition) []agents.RequiredToolCall {
	var calls []agents.RequiredToolCall
	for _, t := range tools {
		if t.Type != agents.ToolTypeFunction || t.Function == nil {
			continue
		}
		calls = append(calls, agents.RequiredToolCall{
			ID:   newID("call_"),
			Type: "function",
			Function: &agents.RequiredFunctionCall{
				Name:      t.Function.Name,
				Arguments: sampleArguments(t.Function.Parameters),
			},
		})
	}
	return calls
}

// approvalCalls asks for approval of the first allowed tool of every MCP
// server that requires approval.
func approvalCalls(tools []agents.ToolDefinition, res *agents.ToolResources) []agents.RequiredToolCall {
	var calls []agents.RequiredToolCall
	for _, t := range tools {
		if t.Type != agents.ToolTypeMCP {
			continue
		}
		mode := t.RequireApproval
		if res != nil {
			for _, m := range res.MCP {
				if m.ServerLabel == t.ServerLabel && m.RequireApproval != "" {
					mode = m.RequireApproval
				}
			}
		}
		if mode == agents.MCPApprovalNever {
			continue
		}
		name := "search"
		if len(t.AllowedTools) > 0 {
			name = t.AllowedTools[0]
		}
		calls = append(calls, agents.RequiredToolCall{
			ID:          newID("call_"),
			Type:        "mcp",
			Name:        name,
			Arguments:   "{}",
			ServerLabel: t.ServerLabel,
		})
	}
	return calls
}

// sampleArguments builds a JSON object holding a plausible value for every
// required property of schema.
func sampleArguments(schema json.RawMessage) string {
	var s struct {
		Properties map[string]struct {
			Type string `json:"type"`
			Enum []any  `json:"enum"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schema, &s); err != nil {
		return "{}"
	}
	args := make(map[string]any, len(s.Required))
	for _, name := range s.Required {
		p := s.Properties[name]
		switch {
		case len(p.Enum) > 0:
			args[name] = p.Enum[0]
		case p.Type == "integer" || p.Type == "number":
			args[name] = 1
		case p.Type == "boolean":
			args[name] = true
		case p.Type == "array":
			args[name] = []any{}
		case p.Type == "object":
			args[name] = map[string]any{}
		default:
			args[name] = "Seattle"
		}
	}
	b, _ := json.Marshal(args)
	return string(b)
}

// complete writes the assistant reply and the run steps. Callers hold s.mu.
func (s *Server) complete(ts *threadState, rs *runState) {
	run := &rs.run
	var toolCalls []agents.RunStepToolCall
	toolCalls = append(toolCalls, rs.functions...)
	for _, t := range run.Tools {
		if call, ok := serverToolCall(t); ok {
			toolCalls = append(toolCalls, call)
		}
	}
	if len(toolCalls) > 0 {
		rs.addStep(s, agents.RunStepDetails{Type: agents.RunStepTypeToolCalls, ToolCalls: toolCalls})
	}

	text, annotations := s.reply(ts, rs)
	msg := &agents.ThreadMessage{
		ID:        newID("msg_"),
		Object:    "thread.message",
		CreatedAt: s.now(),
		ThreadID:  ts.thread.ID,
		Role:      agents.RoleAssistant,
		AgentID:   run.AgentID,
		RunID:     run.ID,
		Status:    "completed",
		Content: []agents.MessageContent{{
			Type: "text",
			Text: &agents.MessageText{Value: text, Annotations: annotations},
		}},
	}
	ts.messages = append(ts.messages, msg)
	rs.addStep(s, agents.RunStepDetails{
		Type:            agents.RunStepTypeMessageCreation,
		MessageCreation: &agents.RunStepMessageCreation{MessageID: msg.ID},
	})

	prompt := len(strings.Fields(run.Instructions)) + len(strings.Fields(rs.trigger))
	completion := len(strings.Fields(text))
	run.Usage = &agents.RunUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	run.Status = agents.RunStatusCompleted
	run.CompletedAt = s.now()
}

func (rs *runState) addStep(s *Server, details agents.RunStepDetails) *agents.RunStep {
	now := s.now()
	step := &agents.RunStep{
		ID:          newID("step_"),
		Object:      "thread.run.step",
		Type:        details.Type,
		Status:      "completed",
		ThreadID:    rs.run.ThreadID,
		RunID:       rs.run.ID,
		AgentID:     rs.run.AgentID,
		StepDetails: details,
		CreatedAt:   now,
		CompletedAt: now,
	}
	rs.steps = append(rs.steps, step)
	return step
}

// serverToolCall records a call of a tool the service runs itself.
func serverToolCall(t agents.ToolDefinition) (agents.RunStepToolCall, bool) {
	var payload any
	switch t.Type {
	case agents.ToolTypeFunction:
		return agents.RunStepToolCall{}, false
	case agents.ToolTypeCodeInterpreter:
		call := agents.RunStepToolCall{
			ID:   newID("call_"),
			Type: string(t.Type),
			CodeInterpreter: &agents.RunStepCodeInterpreter{
				Input:   "print('hello from the code interpreter')",
				Outputs: []agents.CodeInterpreterOutput{{Type: "logs", Logs: "hello from the code interpreter"}},
			},
		}
		call.Raw, _ = json.Marshal(map[string]any{"id": call.ID, "type": call.Type, "code_interpreter": call.CodeInterpreter})
		return call, true
	case agents.ToolTypeBingGrounding:
		payload = map[string]string{"requesturl": "https://api.bing.microsoft.com/v7.0/search?q=emulator"}
	case agents.ToolTypeOpenAPI:
		if t.OpenAPI != nil {
			payload = map[string]string{"name": t.OpenAPI.Name, "arguments": "{}"}
		}
	case agents.ToolTypeMCP:
		payload = map[string]string{"server_label": t.ServerLabel}
	case agents.ToolTypeConnectedAgent:
		if t.ConnectedAgent != nil {
			payload = map[string]string{"name": t.ConnectedAgent.Name}
		}
	case agents.ToolTypeAzureFunction:
		if t.AzureFunction != nil {
			payload = map[string]string{"name": t.AzureFunction.Function.Name}
		}
	}
	if payload == nil {
		payload = map[string]string{}
	}
	id := newID("call_")
	raw, _ := json.Marshal(map[string]any{"id": id, "type": t.Type, string(t.Type): payload})
	return agents.RunStepToolCall{ID: id, Type: string(t.Type), Raw: raw}, true
}

// reply composes the assistant answer for a completed run.
func (s *Server) reply(ts *threadState, rs *runState) (string, []agents.MessageAnnotation) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You said: %s", rs.trigger)
	for _, f := range rs.functions {
		fmt.Fprintf(&sb, "\n%s returned %s", f.Function.Name, f.Function.Output)
	}
	for _, a := range rs.approvals {
		verdict := "denied"
		if a.Approve {
			verdict = "approved"
		}
		fmt.Fprintf(&sb, "\nMCP call %s was %s", a.ToolCallID, verdict)
	}
	if last := lastUserMessage(ts); last != nil {
		images := 0
		for _, c := range last.Content {
			if c.Type == "image_url" || c.Type == "image_file" {
				images++
			}
		}
		if images > 0 {
			fmt.Fprintf(&sb, "\nI looked at %d image(s).", images)
		}
		if n := len(last.Attachments); n > 0 {
			fmt.Fprintf(&sb, "\nI read %d attached file(s).", n)
		}
	}

	var annotations []agents.MessageAnnotation
	cite := func(a agents.MessageAnnotation) {
		a.Text = fmt.Sprintf("【%d:0†source】", len(annotations))
		a.StartIndex = len(sb.String())
		sb.WriteString(" " + a.Text)
		a.StartIndex++
		a.EndIndex = a.StartIndex + len(a.Text)
		annotations = append(annotations, a)
	}
	for _, t := range rs.run.Tools {
		switch t.Type {
		case agents.ToolTypeBingGrounding:
			cite(agents.MessageAnnotation{
				Type: "url_citation",
				URLCitation: &agents.URLCitation{
					URL:   "https://www.bing.com/search?q=" + url.QueryEscape(rs.trigger),
					Title: "Search results",
				},
			})
		case agents.ToolTypeFileSearch:
			if fileID := s.firstIndexedFile(rs.resources); fileID != "" {
				cite(agents.MessageAnnotation{
					Type:         "file_citation",
					FileCitation: &agents.FileCitation{FileID: fileID},
				})
			}
		}
	}
	return sb.String(), annotations
}

// firstIndexedFile returns a file ID searchable through res. Callers hold s.mu.
func (s *Server) firstIndexedFile(res *agents.ToolResources) string {
	if res == nil || res.FileSearch == nil {
		return ""
	}
	for _, vsID := range res.FileSearch.VectorStoreIDs {
		if _, ok := s.vectorStores[vsID]; ok {
			for id, f := range s.files {
				if slices.Contains(f.vectorStores, vsID) {
					return id
				}
			}
		}
	}
	return ""
}

func (s *Server) listRunSteps(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rs, err := s.lookupRun(c)
	if err != nil {
		return err
	}
	steps := make([]agents.RunStep, 0, len(rs.steps))
	for _, st := range rs.steps {
		steps = append(steps, *st)
	}
	page, err := paginate(c, steps, func(st agents.RunStep) string { return st.ID })
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getRunStep(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rs, err := s.lookupRun(c)
	if err != nil {
		return err
	}
	for _, st := range rs.steps {
		if st.ID == c.Param("step_id") {
			return c.JSON(http.StatusOK, st)
		}
	}
	return notFound("run step", c.Param("step_id"))
}

func lastUserMessage(ts *threadState) *agents.ThreadMessage {
	for i := len(ts.messages) - 1; i >= 0; i-- {
		if ts.messages[i].Role == agents.RoleUser {
			return ts.messages[i]
		}
	}
	return nil
}

func lastUserText(ts *threadState) string {
	if m := lastUserMessage(ts); m != nil {
		return m.Text()
	}
	return ""
}

func mergeResources(all ...*agents.ToolResources) *agents.ToolResources {
	var out agents.ToolResources
	empty := true
	for _, r := range all {
		if r == nil {
			continue
		}
		empty = false
		if r.CodeInterpreter != nil {
			out.CodeInterpreter = r.CodeInterpreter
		}
		if r.FileSearch != nil {
			out.FileSearch = r.FileSearch
		}
		if r.AzureAISearch != nil {
			out.AzureAISearch = r.AzureAISearch
		}
		if len(r.MCP) > 0 {
			out.MCP = r.MCP
		}
	}
	if empty {
		return nil
	}
	return &out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
