// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func parseAll(t *testing.T, input string) ([]RunEvent, error) {
	t.Helper()
	ch := make(chan RunEvent, 32)
	err := parseRunEvents(context.Background(), strings.NewReader(input), ch)
	close(ch)
	var events []RunEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events, err
}

func TestParseRunEvents(t *testing.T) {
	input := ": keep-alive\n\n" +
		"event: thread.run.created\n" +
		"data: {\"id\":\"run_1\",\"thread_id\":\"thread_1\",\"status\":\"queued\"}\n\n" +
		"event: thread.message.delta\n" +
		"data: {\"id\":\"msg_1\",\"delta\":{\"content\":[{\"index\":0,\"type\":\"text\",\"text\":{\"value\":\"Hel\"}}]}}\n\n" +
		"event: thread.run.step.completed\n" +
		"data: {\"id\":\"step_1\",\"type\":\"message_creation\",\"status\":\"completed\",\"step_details\":{\"type\":\"message_creation\"}}\n\n" +
		"event: done\n" +
		"data: [DONE]\n\n" +
		"event: thread.run.completed\n" +
		"data: {}\n\n"

	events, err := parseAll(t, input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4 (nothing after done)", len(events))
	}
	if events[0].Run == nil || events[0].Run.ID != "run_1" || events[0].Run.Status != RunStatusQueued {
		t.Errorf("run event = %+v", events[0].Run)
	}
	if got := events[1].Text(); got != "Hel" {
		t.Errorf("delta text = %q", got)
	}
	if events[2].Step == nil || events[2].Step.Type != RunStepTypeMessageCreation {
		t.Errorf("step event = %+v", events[2].Step)
	}
	if events[3].Event != EventDone {
		t.Errorf("last event = %q", events[3].Event)
	}
}

func TestParseRunEvents_ErrorEvent(t *testing.T) {
	events, err := parseAll(t, "event: error\ndata: {\"error\":{\"code\":\"server_error\",\"message\":\"boom\"}}\n\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Error == nil || events[0].Error.Message != "boom" {
		t.Fatalf("events = %+v", events)
	}
}

func TestParseRunEvents_TrailingEventWithoutBlankLine(t *testing.T) {
	events, err := parseAll(t, "event: thread.run.in_progress\ndata: {\"id\":\"run_2\",\"status\":\"in_progress\"}")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Run == nil || events[0].Run.ID != "run_2" {
		t.Fatalf("events = %+v", events)
	}
}

func TestParseRunEvents_InvalidPayload(t *testing.T) {
	_, err := parseAll(t, "event: thread.run.created\ndata: {not json}\n\n")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}
