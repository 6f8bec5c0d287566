// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateAgent creates an agent.
func (c *Client) CreateAgent(ctx context.Context, params CreateAgentParams) (*Agent, error) {
	if params.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidRequest)
	}
	var agent Agent
	if err := c.doJSON(ctx, http.MethodPost, "/assistants", nil, params, &agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &agent, nil
}

// GetAgent retrieves an agent by ID.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	var agent Agent
	if err := c.doJSON(ctx, http.MethodGet, "/assistants/"+url.PathEscape(agentID), nil, nil, &agent); err != nil {
		return nil, fmt.Errorf("get agent %s: %w", agentID, err)
	}
	return &agent, nil
}

// UpdateAgent modifies an agent.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, params UpdateAgentParams) (*Agent, error) {
	var agent Agent
	if err := c.doJSON(ctx, http.MethodPost, "/assistants/"+url.PathEscape(agentID), nil, params, &agent); err != nil {
		return nil, fmt.Errorf("update agent %s: %w", agentID, err)
	}
	return &agent, nil
}

// ListAgents returns one page of the project's agents.
func (c *Client) ListAgents(ctx context.Context, opts *ListOptions) (*ListPage[Agent], error) {
	var page ListPage[Agent]
	if err := c.doJSON(ctx, http.MethodGet, "/assistants", listQuery(opts), nil, &page); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return &page, nil
}

// DeleteAgent deletes an agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	return c.deleteResource(ctx, "agent", "/assistants/"+url.PathEscape(agentID))
}

// deleteResource issues a DELETE and checks the deletion status.
func (c *Client) deleteResource(ctx context.Context, kind, path string) error {
	var status DeletionStatus
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, &status); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if !status.Deleted {
		return fmt.Errorf("delete %s %s: %w: service reported deleted=false", kind, status.ID, ErrInvalidResponse)
	}
	return nil
}
