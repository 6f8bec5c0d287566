// Copyright (c) Microsoft. All rights reserved.

package fakeagents

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	openai "github.com/sashabaranov/go-openai"
)

// chatCompletions answers with an echo of the last user message.
func (s *Server) chatCompletions(c echo.Context) error {
	var req openai.ChatCompletionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid chat completion body: " + err.Error())
	}
	if len(req.Messages) == 0 {
		return badRequest("messages must not be empty")
	}
	var prompt string
	for _, m := range req.Messages {
		if m.Role == openai.ChatMessageRoleUser {
			prompt = m.Content
		}
	}
	if strings.Contains(prompt, "[fail]") {
		return apiError(http.StatusBadRequest, "content_filter", "the prompt was filtered")
	}

	s.mu.Lock()
	created := s.now()
	s.mu.Unlock()

	model := c.Param("deployment")
	answer := "You said: " + prompt
	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(strings.Fields(m.Content))
	}
	completionTokens := len(strings.Fields(answer))
	id := newID("chatcmpl-")

	if !req.Stream {
		return c.JSON(http.StatusOK, openai.ChatCompletionResponse{
			ID:      id,
			Object:  "chat.completion",
			Created: created,
			Model:   model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: answer},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{
				PromptTokens:     promptTokens,
				CompletionTokens: completionTokens,
				TotalTokens:      promptTokens + completionTokens,
			},
		})
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.WriteHeader(http.StatusOK)
	parts := chunks(answer)
	for i, part := range parts {
		choice := openai.ChatCompletionStreamChoice{Delta: openai.ChatCompletionStreamChoiceDelta{Content: part}}
		if i == 0 {
			choice.Delta.Role = openai.ChatMessageRoleAssistant
		}
		if i == len(parts)-1 {
			choice.FinishReason = openai.FinishReasonStop
		}
		b, err := json.Marshal(openai.ChatCompletionStreamResponse{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []openai.ChatCompletionStreamChoice{choice},
		})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
			return err
		}
		w.Flush()
	}
	_, err := fmt.Fprint(w, "data: [DONE]\n\n")
	return err
}
