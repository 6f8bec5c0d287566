// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/spf13/cobra"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/inference"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/fakeagents"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/metrics"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/samples"
)

type runOptions struct {
	all          bool
	parallel     int
	pollInterval time.Duration
	emulator     bool
	metricsAddr  string
	rps          float64
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:               "run [sample...]",
		Short:             "Run samples against a Foundry project or the emulator",
		ValidArgsFunction: sampleNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.all {
				return errors.New("name at least one sample, or pass --all")
			}
			if opts.all {
				args = nil
			}
			return runSamples(cmd, root, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.all, "all", false, "run every sample")
	flags.IntVarP(&opts.parallel, "parallel", "p", 1, "number of samples to run at once")
	flags.DurationVar(&opts.pollInterval, "poll-interval", 0, "wait between run status checks, overrides "+config.PollInterval)
	flags.BoolVar(&opts.emulator, "emulator", false, "run against an in-process agent service emulator")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	flags.Float64Var(&opts.rps, "rps", 0, "client-side limit of agent service requests per second, 0 for none")
	return cmd
}

func runSamples(cmd *cobra.Command, root *rootOptions, opts *runOptions, names []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := config.Load(root.envFile)
	if err != nil {
		return err
	}

	var (
		cred      azcore.TokenCredential
		clientOpt = &agents.ClientOptions{RequestsPerSecond: opts.rps}
	)
	if opts.emulator {
		srv := httptest.NewServer(fakeagents.New())
		defer srv.Close()
		logger.Info("emulator started", "url", srv.URL)
		if cfg, err = cfg.EmulatorDefaults(srv.URL+fakeagents.ProjectPath, srv.URL); err != nil {
			return err
		}
		cred = fakeagents.Credential{}
		clientOpt.InsecureAllowCredentialWithHTTP = true
	} else {
		c, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		cred = c
	}
	clientOpt.APIVersion = cfg.AgentsAPIVersion
	// Plain HTTP endpoints are local emulators.
	if strings.HasPrefix(cfg.ProjectEndpoint, "http://") {
		clientOpt.InsecureAllowCredentialWithHTTP = true
	}

	env := samples.Env{
		Config:       cfg,
		Out:          cmd.OutOrStdout(),
		Logger:       logger,
		Metrics:      metrics.NewCollector(),
		PollInterval: cfg.PollInterval,
	}
	if opts.pollInterval > 0 {
		env.PollInterval = opts.pollInterval
	}
	if cfg.ProjectEndpoint != "" {
		if env.Agents, err = agents.NewClient(cfg.ProjectEndpoint, cred, clientOpt); err != nil {
			return err
		}
	}
	if cfg.InferenceEndpoint != "" {
		env.Inference = inference.New(cfg.InferenceEndpoint,
			inference.WithModel(cfg.ModelDeploymentName),
			inference.WithAPIVersion(cfg.InferenceAPIVersion),
			inference.WithAzureCredential(cred),
		)
	}

	if opts.metricsAddr != "" {
		stop := serveMetrics(ctx, opts.metricsAddr, env.Metrics, logger)
		defer stop()
	}

	results, err := samples.NewRunner(env).Run(ctx, names, opts.parallel)
	if err != nil {
		return err
	}
	return summarize(cmd, results)
}

func serveMetrics(ctx context.Context, addr string, c *metrics.Collector, logger *slog.Logger) func() {
	srv := &http.Server{Addr: addr, Handler: c.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// summarize prints one line per result and fails when a sample failed.
// Skipped samples do not count as failures.
func summarize(cmd *cobra.Command, results []samples.Result) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== summary ===")
	failed := 0
	for _, r := range results {
		switch {
		case r.Err == nil:
			fmt.Fprintf(out, "PASS %s (%s)\n", r.Name, r.Duration.Round(time.Millisecond))
		case r.Skipped():
			fmt.Fprintf(out, "SKIP %s: %v\n", r.Name, r.Err)
		default:
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", r.Name, r.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sample(s) failed", failed, len(results))
	}
	return nil
}
