// Copyright (c) Microsoft. All rights reserved.

package fakeagents

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatPath = "/openai/deployments/gpt-4o/chat/completions?api-version=2024-10-21"

func TestChatCompletions(t *testing.T) {
	s := New()
	rec := do(t, s, http.MethodPost, chatPath,
		`{"messages":[{"role":"system","content":"be brief"},{"role":"user","content":"How many feet are in a mile?"}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp openai.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, "You said: How many feet are in a mile?", resp.Choices[0].Message.Content)
	assert.Equal(t, openai.FinishReasonStop, resp.Choices[0].FinishReason)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

func TestChatCompletions_Stream(t *testing.T) {
	s := New()
	rec := do(t, s, http.MethodPost, chatPath, `{"stream":true,"messages":[{"role":"user","content":"tell me more"}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var text strings.Builder
	var finish openai.FinishReason
	records := readSSE(t, rec.Body.String())
	require.Equal(t, "[DONE]", records[len(records)-1].data)
	for _, r := range records[:len(records)-1] {
		var chunk openai.ChatCompletionStreamResponse
		require.NoError(t, json.Unmarshal([]byte(r.data), &chunk))
		text.WriteString(chunk.Choices[0].Delta.Content)
		if chunk.Choices[0].FinishReason != "" {
			finish = chunk.Choices[0].FinishReason
		}
	}
	assert.Equal(t, "You said: tell me more", text.String())
	assert.Equal(t, openai.FinishReasonStop, finish)
}

func TestChatCompletions_Errors(t *testing.T) {
	s := New()
	rec := do(t, s, http.MethodPost, chatPath, `{"messages":[{"role":"user","content":"[fail] please"}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "content_filter", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, chatPath, `{"messages":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/openai/deployments/gpt-4o/chat/completions", `{"messages":[]}`, nil)
	assert.Equal(t, "missing_api_version", decodeError(t, rec).Code)
}
