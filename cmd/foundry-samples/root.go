// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

type rootOptions struct {
	envFile   string
	logLevel  string
	logFormat string

	zap *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "foundry-samples",
		Short:        "Run Azure AI Foundry agent service samples",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.zap = logger
			slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core(), zapslog.WithName("foundry-samples"))))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.zap != nil {
				_ = opts.zap.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "file with KEY=value settings, ignored when missing")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log format: console or json")

	cmd.AddCommand(
		newListCommand(opts),
		newRunCommand(opts),
		newEmulateCommand(),
	)
	return cmd
}

// newLogger builds the zap logger behind slog. Logs go to stderr so they
// never mix with sample output.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid --log-format %q: want console or json", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
