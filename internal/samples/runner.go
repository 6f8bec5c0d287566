// Copyright (c) Microsoft. All rights reserved.

package samples

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/metrics"
)

// ErrMissingConfig is returned for samples whose required keys are unset.
// Such samples are skipped without calling the service.
var ErrMissingConfig = errors.New("missing configuration")

// Result is the outcome of one sample.
type Result struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Skipped reports whether the sample did not run for lack of configuration.
func (r Result) Skipped() bool { return errors.Is(r.Err, ErrMissingConfig) }

// Outcome returns the metrics outcome label of r.
func (r Result) Outcome() string {
	switch {
	case r.Err == nil:
		return metrics.OutcomeSuccess
	case r.Skipped():
		return metrics.OutcomeSkipped
	default:
		return metrics.OutcomeFailure
	}
}

// Runner executes samples against one Env.
type Runner struct {
	env     Env
	catalog []Sample
	mu      sync.Mutex
}

// NewRunner creates a Runner over the registered [Catalog].
func NewRunner(env Env) *Runner {
	return NewRunnerWithCatalog(env, Catalog())
}

// NewRunnerWithCatalog creates a Runner over samples.
func NewRunnerWithCatalog(env Env, samples []Sample) *Runner {
	if env.Out == nil {
		env.Out = io.Discard
	}
	return &Runner{env: env, catalog: samples}
}

func (r *Runner) selectSamples(names []string) ([]Sample, error) {
	if len(names) == 0 {
		return slices.Clone(r.catalog), nil
	}
	out := make([]Sample, 0, len(names))
	var unknown []string
	for _, name := range names {
		i := slices.IndexFunc(r.catalog, func(s Sample) bool { return s.Name == name })
		if i < 0 {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, r.catalog[i])
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown sample(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// Run executes the named samples, or all of them when names is empty, at
// most parallel at a time. Results keep the order of the selection. The
// error is non-nil only when a name is unknown; sample failures are
// reported in the results.
func (r *Runner) Run(ctx context.Context, names []string, parallel int) ([]Result, error) {
	selected, err := r.selectSamples(names)
	if err != nil {
		return nil, err
	}
	if parallel < 1 {
		parallel = 1
	}

	results := make([]Result, len(selected))
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, s := range selected {
		g.Go(func() error {
			results[i] = r.runOne(ctx, s)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, s Sample) (res Result) {
	res.Name = s.Name
	logger := r.env.logger().With("sample", s.Name)
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		r.env.Metrics.ObserveSample(s.Name, res.Outcome(), res.Duration)
		if res.Err != nil && !res.Skipped() {
			logger.Error("sample failed", "duration", res.Duration, "error", res.Err)
		} else {
			logger.Info("sample finished", "duration", res.Duration, "outcome", res.Outcome())
		}
	}()

	if missing := r.env.Config.Missing(s.Requires...); len(missing) > 0 {
		res.Err = fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
		return res
	}
	if slices.Contains(s.Requires, config.ProjectEndpoint) && r.env.Agents == nil {
		res.Err = errors.New("agents client is not configured")
		return res
	}

	var buf bytes.Buffer
	env := r.env
	env.Out = &buf
	env.Logger = logger
	defer r.flush(s.Name, &buf)

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("sample %s panicked: %v", s.Name, p)
		}
	}()
	logger.Info("sample started")
	res.Err = s.Run(ctx, &env)
	return res
}

// flush writes the buffered output of one sample in one piece.
func (r *Runner) flush(name string, buf *bytes.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.env.Out, "=== %s ===\n", name)
	_, _ = buf.WriteTo(r.env.Out)
}
