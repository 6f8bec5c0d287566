// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateThread creates a thread, optionally seeded with messages.
func (c *Client) CreateThread(ctx context.Context, params *CreateThreadParams) (*Thread, error) {
	if params == nil {
		params = &CreateThreadParams{}
	}
	var thread Thread
	if err := c.doJSON(ctx, http.MethodPost, "/threads", nil, params, &thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &thread, nil
}

// GetThread retrieves a thread by ID.
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	var thread Thread
	if err := c.doJSON(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID), nil, nil, &thread); err != nil {
		return nil, fmt.Errorf("get thread %s: %w", threadID, err)
	}
	return &thread, nil
}

// DeleteThread deletes a thread with its messages and runs.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.deleteResource(ctx, "thread", "/threads/"+url.PathEscape(threadID))
}
