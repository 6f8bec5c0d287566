// Copyright (c) Microsoft. All rights reserved.

// Package metrics collects Prometheus metrics about sample runs, the agent
// runs they drive and the local functions those runs call.
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

const namespace = "foundry_samples"

// Sample outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Collector owns a private registry with all collectors of this package.
// A nil *Collector is valid and records nothing.
type Collector struct {
	reg *prometheus.Registry

	sampleRuns      *prometheus.CounterVec
	sampleDuration  *prometheus.HistogramVec
	runStatus       *prometheus.CounterVec
	toolInvocations *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		reg: reg,
		sampleRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_runs_total",
			Help:      "Sample executions by outcome.",
		}, []string{"sample", "outcome"}),
		sampleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_duration_seconds",
			Help:      "Wall time of sample executions in seconds.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"sample"}),
		runStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_status_total",
			Help:      "Agent runs by terminal status.",
		}, []string{"status"}),
		toolInvocations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Local function invocations by outcome.",
		}, []string{"tool", "outcome"}),
	}
}

// Registry returns the registry the collectors are registered with.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// ObserveSample records one sample execution.
func (c *Collector) ObserveSample(sample, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.sampleRuns.WithLabelValues(sample, outcome).Inc()
	c.sampleDuration.WithLabelValues(sample).Observe(d.Seconds())
}

// ObserveRun records run when it has reached a terminal status. It matches
// the signature of [agents.PollOptions.OnStatus].
func (c *Collector) ObserveRun(run *agents.Run) {
	if c == nil || run == nil || !run.Status.Terminal() {
		return
	}
	c.runStatus.WithLabelValues(string(run.Status)).Inc()
}

// FunctionMiddleware counts local function invocations.
func (c *Collector) FunctionMiddleware() agents.FunctionMiddleware {
	return func(next agents.FunctionHandler) agents.FunctionHandler {
		return func(ctx context.Context, tool agents.Tool, args json.RawMessage) (any, error) {
			result, err := next(ctx, tool, args)
			if c != nil {
				outcome := "ok"
				if err != nil {
					outcome = "error"
				}
				c.toolInvocations.WithLabelValues(tool.Name(), outcome).Inc()
			}
			return result, err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
