// Copyright (c) Microsoft. All rights reserved.

package fakeagents

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

type sseEvent struct {
	name string
	data any
}

// streamRun drives rs until it needs client input or finishes, writing the
// lifecycle as server-sent events.
func (s *Server) streamRun(c echo.Context, rs *runState) error {
	s.mu.Lock()
	events := s.runEvents(rs)
	s.mu.Unlock()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	for _, ev := range events {
		var data []byte
		if str, ok := ev.data.(string); ok {
			data = []byte(str)
		} else {
			b, err := json.Marshal(ev.data)
			if err != nil {
				return err
			}
			data = b
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data); err != nil {
			return err
		}
		w.Flush()
	}
	return nil
}

// runEvents advances rs to its next resting state and returns the events
// describing it. Callers hold s.mu.
func (s *Server) runEvents(rs *runState) []sseEvent {
	ts := s.threads[rs.run.ThreadID]
	var events []sseEvent
	if rs.run.StartedAt == 0 {
		events = append(events, sseEvent{agents.EventRunCreated, rs.run})
	}
	events = append(events, sseEvent{agents.EventRunQueued, rs.run})

	for ts != nil {
		stepsBefore := len(rs.steps)
		s.advance(ts, rs)
		run := rs.run

		if run.Status == agents.RunStatusCompleted {
			events = append(events, completionEvents(ts, rs.steps[stepsBefore:])...)
		}
		events = append(events, sseEvent{"thread.run." + string(run.Status), run})
		if run.Status != agents.RunStatusInProgress && run.Status != agents.RunStatusQueued {
			break
		}
	}
	return append(events, sseEvent{agents.EventDone, "[DONE]"})
}

// completionEvents describes the steps a run recorded while completing.
func completionEvents(ts *threadState, steps []*agents.RunStep) []sseEvent {
	var events []sseEvent
	for _, st := range steps {
		inProgress := *st
		inProgress.Status = "in_progress"
		inProgress.CompletedAt = 0
		events = append(events, sseEvent{agents.EventRunStepCreated, inProgress})

		if st.Type == agents.RunStepTypeMessageCreation && st.StepDetails.MessageCreation != nil {
			if msg := findMessage(ts, st.StepDetails.MessageCreation.MessageID); msg != nil {
				events = append(events, messageEvents(msg)...)
			}
		}
		events = append(events, sseEvent{agents.EventRunStepCompleted, *st})
	}
	return events
}

func messageEvents(msg *agents.ThreadMessage) []sseEvent {
	started := *msg
	started.Status = "in_progress"
	started.Content = []agents.MessageContent{}
	events := []sseEvent{
		{agents.EventMessageCreated, started},
		{agents.EventMessageInProgress, started},
	}
	for _, chunk := range chunks(msg.Text()) {
		events = append(events, sseEvent{agents.EventMessageDelta, agents.MessageDelta{
			ID:     msg.ID,
			Object: "thread.message.delta",
			Delta: agents.MessageDeltaBody{Content: []agents.MessageDeltaContent{{
				Type: "text",
				Text: &agents.MessageText{Value: chunk},
			}}},
		}})
	}
	return append(events, sseEvent{agents.EventMessageCompleted, *msg})
}

// chunks splits text into word-sized deltas that concatenate back to text.
func chunks(text string) []string {
	var out []string
	for len(text) > 0 {
		i := strings.IndexByte(text[1:], ' ')
		if i < 0 {
			out = append(out, text)
			break
		}
		out = append(out, text[:i+1])
		text = text[i+1:]
	}
	return out
}

func findMessage(ts *threadState, id string) *agents.ThreadMessage {
	for _, m := range ts.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
