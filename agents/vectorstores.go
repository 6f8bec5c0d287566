// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CreateVectorStore creates a vector store over already uploaded files.
func (c *Client) CreateVectorStore(ctx context.Context, params CreateVectorStoreParams) (*VectorStore, error) {
	var vs VectorStore
	if err := c.doJSON(ctx, http.MethodPost, "/vector_stores", nil, params, &vs); err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	return &vs, nil
}

// CreateVectorStoreAndPoll creates a vector store and waits until its files
// are indexed. interval <= 0 uses [DefaultPollInterval].
func (c *Client) CreateVectorStoreAndPoll(ctx context.Context, params CreateVectorStoreParams, interval time.Duration) (*VectorStore, error) {
	vs, err := c.CreateVectorStore(ctx, params)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for vs.Status == VectorStoreInProgress {
		if err := sleep(ctx, interval); err != nil {
			return vs, err
		}
		if vs, err = c.GetVectorStore(ctx, vs.ID); err != nil {
			return nil, err
		}
	}
	if vs.Status != VectorStoreCompleted {
		return vs, fmt.Errorf("vector store %s: %w: status %s", vs.ID, ErrProcessingFailed, vs.Status)
	}
	if vs.FileCounts.Failed > 0 {
		return vs, fmt.Errorf("vector store %s: %w: %d of %d files failed",
			vs.ID, ErrProcessingFailed, vs.FileCounts.Failed, vs.FileCounts.Total)
	}
	return vs, nil
}

// GetVectorStore retrieves a vector store.
func (c *Client) GetVectorStore(ctx context.Context, vectorStoreID string) (*VectorStore, error) {
	var vs VectorStore
	if err := c.doJSON(ctx, http.MethodGet, "/vector_stores/"+url.PathEscape(vectorStoreID), nil, nil, &vs); err != nil {
		return nil, fmt.Errorf("get vector store %s: %w", vectorStoreID, err)
	}
	return &vs, nil
}

// ListVectorStores returns one page of the project's vector stores.
func (c *Client) ListVectorStores(ctx context.Context, opts *ListOptions) (*ListPage[VectorStore], error) {
	var page ListPage[VectorStore]
	if err := c.doJSON(ctx, http.MethodGet, "/vector_stores", listQuery(opts), nil, &page); err != nil {
		return nil, fmt.Errorf("list vector stores: %w", err)
	}
	return &page, nil
}

// DeleteVectorStore deletes a vector store. The indexed files are kept.
func (c *Client) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	return c.deleteResource(ctx, "vector store", "/vector_stores/"+url.PathEscape(vectorStoreID))
}
