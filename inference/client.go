// Copyright (c) Microsoft. All rights reserved.

package inference

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = openai.ChatMessageRoleSystem
	RoleUser      Role = openai.ChatMessageRoleUser
	RoleAssistant Role = openai.ChatMessageRoleAssistant
)

// Message is one entry of a chat conversation.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage returns a system message with text.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// UserMessage returns a user message with text.
func UserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// Usage reports token consumption of a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the result of [Client.Complete].
type Completion struct {
	ID           string
	Model        string
	Text         string
	FinishReason string
	Usage        Usage
}

// Client sends chat completion requests to one model deployment.
// Use [New] to create one.
type Client struct {
	oc    *openai.Client
	model string
}

// New creates a [Client] for an endpoint such as
// https://<resource>.services.ai.azure.com or https://<resource>.openai.azure.com.
func New(endpoint string, opts ...Option) *Client {
	cfg := &clientConfig{apiVersion: DefaultAPIVersion}
	for _, o := range opts {
		o(cfg)
	}

	oc := openai.DefaultAzureConfig(cfg.apiKey, endpoint)
	oc.APIVersion = cfg.apiVersion
	oc.AzureModelMapperFunc = func(model string) string { return model }
	if cfg.httpClient != nil {
		oc.HTTPClient = cfg.httpClient
	}
	if cfg.azureCredential != nil {
		oc.APIType = openai.APITypeAzureAD
		oc.HTTPClient = withCredential(cfg.httpClient, cfg.azureCredential)
	}
	return &Client{oc: openai.NewClientWithConfig(oc), model: cfg.model}
}

// Model returns the deployment name requests are sent to.
func (c *Client) Model() string { return c.model }

func (c *Client) request(messages []Message, stream bool) (openai.ChatCompletionRequest, error) {
	if c.model == "" {
		return openai.ChatCompletionRequest{}, fmt.Errorf("%w: model deployment is required", agents.ErrInvalidRequest)
	}
	if len(messages) == 0 {
		return openai.ChatCompletionRequest{}, fmt.Errorf("%w: at least one message is required", agents.ErrInvalidRequest)
	}
	req := openai.ChatCompletionRequest{Model: c.model, Stream: stream}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return req, nil
}

// Complete sends a non-streaming chat completion request.
func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	req, err := c.request(messages, false)
	if err != nil {
		return nil, err
	}
	resp, err := c.oc.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion has no choices", agents.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	return &Completion{
		ID:           resp.ID,
		Model:        resp.Model,
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Stream sends a streaming chat completion request and yields content deltas.
// Errors opening the stream are returned directly.
func (c *Client) Stream(ctx context.Context, messages []Message) (*agents.ResponseStream[string], error) {
	req, err := c.request(messages, true)
	if err != nil {
		return nil, err
	}
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := c.oc.CreateChatCompletionStream(streamCtx, req)
	if err != nil {
		cancel()
		return nil, mapError(err)
	}

	return agents.NewResponseStream[string](ctx, func(ctx context.Context, ch chan<- string) error {
		defer cancel()
		defer stream.Close()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return mapError(err)
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				select {
				case ch <- choice.Delta.Content:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}), nil
}
