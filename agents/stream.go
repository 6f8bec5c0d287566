// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"sync"
)

// ResponseStream provides a pull-based iterator over values produced by a
// goroutine, with error propagation and cleanup.
//
// Callers must call Close when done, or use a context with cancellation.
type ResponseStream[T any] struct {
	ch        <-chan T
	errCh     <-chan error
	cancel    context.CancelFunc
	closeOnce sync.Once
	err       error
}

// NewResponseStream creates a ResponseStream by running producer in a goroutine.
// The producer sends values to the channel and returns any error.
// The channel is closed automatically when the producer returns.
func NewResponseStream[T any](ctx context.Context, producer func(ctx context.Context, ch chan<- T) error) *ResponseStream[T] {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan T, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		if err := producer(ctx, ch); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	return &ResponseStream[T]{
		ch:     ch,
		errCh:  errCh,
		cancel: cancel,
	}
}

// Next returns the next value from the stream.
// ok is false when the stream is exhausted. err is non-nil on failure.
func (s *ResponseStream[T]) Next(ctx context.Context) (val T, ok bool, err error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case v, open := <-s.ch:
		if !open {
			if e, ok := <-s.errCh; ok {
				s.err = e
			}
			var zero T
			return zero, false, s.err
		}
		return v, true, nil
	}
}

// Collect drains the entire stream and returns all values.
func (s *ResponseStream[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for {
		val, ok, err := s.Next(ctx)
		if err != nil {
			return items, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, val)
	}
}

// Close cancels the producer and releases resources.
// Safe to call multiple times.
func (s *ResponseStream[T]) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		for range s.ch {
		}
	})
	return nil
}

// MapStream transforms a ResponseStream[A] into a ResponseStream[B] using fn.
// Values for which fn returns false are dropped.
func MapStream[A, B any](ctx context.Context, src *ResponseStream[A], fn func(A) (B, bool)) *ResponseStream[B] {
	return NewResponseStream[B](ctx, func(ctx context.Context, ch chan<- B) error {
		defer src.Close()
		for {
			val, ok, err := src.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			out, keep := fn(val)
			if !keep {
				continue
			}
			select {
			case ch <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}
