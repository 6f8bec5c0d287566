// Copyright (c) Microsoft. All rights reserved.

package fakeagents

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

type threadState struct {
	thread   agents.Thread
	messages []*agents.ThreadMessage
	runs     []string
}

func (s *Server) createAgent(c echo.Context) error {
	var p agents.CreateAgentParams
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid agent body: " + err.Error())
	}
	if p.Model == "" {
		return badRequest("model is required")
	}
	if err := validateTools(p.Tools); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := &agents.Agent{
		ID:             newID("asst_"),
		Object:         "assistant",
		CreatedAt:      s.now(),
		Name:           p.Name,
		Description:    p.Description,
		Model:          p.Model,
		Instructions:   p.Instructions,
		Tools:          p.Tools,
		ToolResources:  p.ToolResources,
		Temperature:    p.Temperature,
		TopP:           p.TopP,
		ResponseFormat: p.ResponseFormat,
		Metadata:       p.Metadata,
	}
	s.agents[a.ID] = a
	return c.JSON(http.StatusOK, a)
}

func (s *Server) getAgent(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[c.Param("agent_id")]
	if !ok {
		return notFound("assistant", c.Param("agent_id"))
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) updateAgent(c echo.Context) error {
	var p agents.UpdateAgentParams
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid agent body: " + err.Error())
	}
	if err := validateTools(p.Tools); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[c.Param("agent_id")]
	if !ok {
		return notFound("assistant", c.Param("agent_id"))
	}
	if p.Model != "" {
		a.Model = p.Model
	}
	if p.Name != "" {
		a.Name = p.Name
	}
	if p.Description != "" {
		a.Description = p.Description
	}
	if p.Instructions != "" {
		a.Instructions = p.Instructions
	}
	if p.Tools != nil {
		a.Tools = p.Tools
	}
	if p.ToolResources != nil {
		a.ToolResources = p.ToolResources
	}
	if p.Temperature != nil {
		a.Temperature = p.Temperature
	}
	if p.TopP != nil {
		a.TopP = p.TopP
	}
	if p.Metadata != nil {
		a.Metadata = p.Metadata
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) listAgents(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]agents.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		all = append(all, *a)
	}
	slices.SortFunc(all, func(a, b agents.Agent) int { return int(a.CreatedAt - b.CreatedAt) })
	page, err := paginate(c, all, func(a agents.Agent) string { return a.ID })
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) deleteAgent(c echo.Context) error {
	id := c.Param("agent_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return notFound("assistant", id)
	}
	delete(s.agents, id)
	return c.JSON(http.StatusOK, agents.DeletionStatus{ID: id, Object: "assistant.deleted", Deleted: true})
}

func validateTools(tools []agents.ToolDefinition) error {
	for _, t := range tools {
		switch t.Type {
		case agents.ToolTypeFunction:
			if t.Function == nil || t.Function.Name == "" {
				return badRequest("function tools need a function name")
			}
		case agents.ToolTypeOpenAPI:
			if t.OpenAPI == nil || len(t.OpenAPI.Spec) == 0 {
				return badRequest("openapi tools need a spec")
			}
		case agents.ToolTypeMCP:
			if t.ServerLabel == "" || t.ServerURL == "" {
				return badRequest("mcp tools need server_label and server_url")
			}
		case agents.ToolTypeBingGrounding:
			if t.BingGrounding == nil || len(t.BingGrounding.SearchConfigurations) == 0 {
				return badRequest("bing_grounding tools need a connection")
			}
		case agents.ToolTypeConnectedAgent:
			if t.ConnectedAgent == nil || t.ConnectedAgent.ID == "" {
				return badRequest("connected_agent tools need an agent id")
			}
		case agents.ToolTypeCodeInterpreter, agents.ToolTypeFileSearch, agents.ToolTypeAzureAISearch,
			agents.ToolTypeSharepointGrounding, agents.ToolTypeFabricDataAgent, agents.ToolTypeAzureFunction,
			agents.ToolTypeBrowserAutomation:
		default:
			return badRequest("unsupported tool type '" + string(t.Type) + "'")
		}
	}
	return nil
}

func (s *Server) createThread(c echo.Context) error {
	var p agents.CreateThreadParams
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid thread body: " + err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.newThread(p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ts.thread)
}

// newThread stores a thread with its initial messages. Callers hold s.mu.
func (s *Server) newThread(p agents.CreateThreadParams) (*threadState, error) {
	ts := &threadState{thread: agents.Thread{
		ID:            newID("thread_"),
		Object:        "thread",
		CreatedAt:     s.now(),
		ToolResources: p.ToolResources,
		Metadata:      p.Metadata,
	}}
	for _, m := range p.Messages {
		if _, err := s.appendMessage(ts, m, "", ""); err != nil {
			return nil, err
		}
	}
	s.threads[ts.thread.ID] = ts
	return ts, nil
}

func (s *Server) getThread(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.thread(c.Param("thread_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ts.thread)
}

func (s *Server) deleteThread(c echo.Context) error {
	id := c.Param("thread_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.thread(id)
	if err != nil {
		return err
	}
	for _, runID := range ts.runs {
		delete(s.runs, runID)
	}
	delete(s.threads, id)
	return c.JSON(http.StatusOK, agents.DeletionStatus{ID: id, Object: "thread.deleted", Deleted: true})
}

func (s *Server) thread(id string) (*threadState, error) {
	ts, ok := s.threads[id]
	if !ok {
		return nil, notFound("thread", id)
	}
	return ts, nil
}

// appendMessage validates p and adds it to the thread. Callers hold s.mu.
func (s *Server) appendMessage(ts *threadState, p agents.CreateMessageParams, agentID, runID string) (*agents.ThreadMessage, error) {
	role := p.Role
	if role == "" {
		role = agents.RoleUser
	}
	if role != agents.RoleUser && role != agents.RoleAssistant {
		return nil, badRequest("role must be user or assistant")
	}
	msg := &agents.ThreadMessage{
		ID:          newID("msg_"),
		Object:      "thread.message",
		CreatedAt:   s.now(),
		ThreadID:    ts.thread.ID,
		Role:        role,
		AgentID:     agentID,
		RunID:       runID,
		Status:      "completed",
		Attachments: p.Attachments,
		Metadata:    p.Metadata,
	}
	if len(p.Blocks) == 0 {
		if p.Content == "" {
			return nil, badRequest("message content is required")
		}
		msg.Content = []agents.MessageContent{textContent(p.Content)}
	}
	for _, b := range p.Blocks {
		switch b.Type {
		case "text":
			msg.Content = append(msg.Content, textContent(b.Text))
		case "image_url":
			if b.ImageURL == nil || b.ImageURL.URL == "" {
				return nil, badRequest("image_url blocks need a url")
			}
			msg.Content = append(msg.Content, agents.MessageContent{Type: "image_url", ImageURL: b.ImageURL})
		case "image_file":
			if b.ImageFile == nil {
				return nil, badRequest("image_file blocks need a file_id")
			}
			if _, ok := s.files[b.ImageFile.FileID]; !ok {
				return nil, notFound("file", b.ImageFile.FileID)
			}
			msg.Content = append(msg.Content, agents.MessageContent{Type: "image_file", ImageFile: b.ImageFile})
		default:
			return nil, badRequest("unsupported content block '" + b.Type + "'")
		}
	}
	for _, a := range p.Attachments {
		if _, ok := s.files[a.FileID]; !ok {
			return nil, notFound("file", a.FileID)
		}
	}
	ts.messages = append(ts.messages, msg)
	return msg, nil
}

func textContent(v string) agents.MessageContent {
	return agents.MessageContent{Type: "text", Text: &agents.MessageText{Value: v}}
}

func (s *Server) createMessage(c echo.Context) error {
	var p agents.CreateMessageParams
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid message body: " + err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.thread(c.Param("thread_id"))
	if err != nil {
		return err
	}
	if s.activeRun(ts) != nil {
		return badRequest("can't add messages to a thread while a run is active")
	}
	msg, err := s.appendMessage(ts, p, "", "")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

func (s *Server) listMessages(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.thread(c.Param("thread_id"))
	if err != nil {
		return err
	}
	runID := c.QueryParam("run_id")
	msgs := make([]agents.ThreadMessage, 0, len(ts.messages))
	for _, m := range ts.messages {
		if runID == "" || m.RunID == runID {
			msgs = append(msgs, *m)
		}
	}
	page, err := paginate(c, msgs, func(m agents.ThreadMessage) string { return m.ID })
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getMessage(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.thread(c.Param("thread_id"))
	if err != nil {
		return err
	}
	for _, m := range ts.messages {
		if m.ID == c.Param("message_id") {
			return c.JSON(http.StatusOK, m)
		}
	}
	return notFound("message", c.Param("message_id"))
}

func (s *Server) createVectorStore(c echo.Context) error {
	var p agents.CreateVectorStoreParams
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid vector store body: " + err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var usage int64
	for _, id := range p.FileIDs {
		f, ok := s.files[id]
		if !ok {
			return notFound("file", id)
		}
		usage += f.info.Bytes
	}
	vs := &agents.VectorStore{
		ID:         newID("vs_"),
		Object:     "vector_store",
		CreatedAt:  s.now(),
		Name:       p.Name,
		UsageBytes: usage,
		Status:     agents.VectorStoreInProgress,
		FileCounts: agents.VectorStoreFileCounts{InProgress: len(p.FileIDs), Total: len(p.FileIDs)},
		Metadata:   p.Metadata,
	}
	for _, id := range p.FileIDs {
		s.files[id].vectorStores = append(s.files[id].vectorStores, vs.ID)
	}
	s.vectorStores[vs.ID] = vs
	return c.JSON(http.StatusOK, vs)
}

func (s *Server) getVectorStore(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.vectorStores[c.Param("vector_store_id")]
	if !ok {
		return notFound("vector store", c.Param("vector_store_id"))
	}
	if vs.Status == agents.VectorStoreInProgress {
		vs.Status = agents.VectorStoreCompleted
		vs.FileCounts.Completed += vs.FileCounts.InProgress
		vs.FileCounts.InProgress = 0
	}
	return c.JSON(http.StatusOK, vs)
}

func (s *Server) listVectorStores(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]agents.VectorStore, 0, len(s.vectorStores))
	for _, vs := range s.vectorStores {
		all = append(all, *vs)
	}
	slices.SortFunc(all, func(a, b agents.VectorStore) int { return int(a.CreatedAt - b.CreatedAt) })
	page, err := paginate(c, all, func(v agents.VectorStore) string { return v.ID })
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) deleteVectorStore(c echo.Context) error {
	id := c.Param("vector_store_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vectorStores[id]; !ok {
		return notFound("vector store", id)
	}
	delete(s.vectorStores, id)
	return c.JSON(http.StatusOK, agents.DeletionStatus{ID: id, Object: "vector_store.deleted", Deleted: true})
}
