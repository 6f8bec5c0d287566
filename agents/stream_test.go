// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"context"
	"testing"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func TestResponseStream_Collect(t *testing.T) {
	stream := agents.NewResponseStream(context.Background(), func(ctx context.Context, ch chan<- int) error {
		for i := 1; i <= 3; i++ {
			ch <- i
		}
		return nil
	})
	defer stream.Close()

	items, err := stream.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	for i, v := range items {
		if v != i+1 {
			t.Errorf("[%d] = %d, want %d", i, v, i+1)
		}
	}
}

func TestResponseStream_Next(t *testing.T) {
	stream := agents.NewResponseStream(context.Background(), func(ctx context.Context, ch chan<- string) error {
		ch <- "a"
		ch <- "b"
		return nil
	})
	defer stream.Close()

	ctx := context.Background()

	v1, ok, err := stream.Next(ctx)
	if err != nil || !ok || v1 != "a" {
		t.Errorf("next1: val=%q ok=%v err=%v", v1, ok, err)
	}

	v2, ok, err := stream.Next(ctx)
	if err != nil || !ok || v2 != "b" {
		t.Errorf("next2: val=%q ok=%v err=%v", v2, ok, err)
	}

	_, ok, err = stream.Next(ctx)
	if ok {
		t.Error("expected stream to be exhausted")
	}
	if err != nil {
		t.Errorf("unexpected error after exhaustion: %v", err)
	}
}

func TestResponseStream_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stream := agents.NewResponseStream(ctx, func(ctx context.Context, ch chan<- int) error {
		for {
			select {
			case ch <- 42:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	v, ok, err := stream.Next(ctx)
	if err != nil || !ok || v != 42 {
		t.Fatalf("first next: val=%d ok=%v err=%v", v, ok, err)
	}

	cancel()
	stream.Close()
}

func TestResponseStream_ProducerError(t *testing.T) {
	stream := agents.NewResponseStream(context.Background(), func(ctx context.Context, ch chan<- int) error {
		ch <- 1
		return agents.ErrService
	})
	defer stream.Close()

	ctx := context.Background()
	_, _, _ = stream.Next(ctx)

	_, ok, err := stream.Next(ctx)
	if ok {
		t.Error("expected stream to be exhausted after error")
	}
	if err == nil {
		t.Fatal("expected error from producer")
	}
}

func TestMapStream(t *testing.T) {
	ctx := context.Background()
	src := agents.NewResponseStream(ctx, func(ctx context.Context, ch chan<- int) error {
		for i := 1; i <= 4; i++ {
			ch <- i
		}
		return nil
	})

	// Odd numbers are dropped.
	mapped := agents.MapStream(ctx, src, func(i int) (string, bool) {
		return string(rune('a' + i - 1)), i%2 == 0
	})
	defer mapped.Close()

	items, err := mapped.Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"b", "d"}
	if len(items) != len(expected) {
		t.Fatalf("items = %v, want %v", items, expected)
	}
	for i, v := range items {
		if v != expected[i] {
			t.Errorf("[%d] = %q, want %q", i, v, expected[i])
		}
	}
}
