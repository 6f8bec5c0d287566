// Copyright (c) Microsoft. All rights reserved.

// Command foundry-samples runs the Azure AI Foundry agent samples.
//
// Settings come from a .env file and the environment:
//
//	export PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	export MODEL_DEPLOYMENT_NAME=gpt-4o
//	foundry-samples list
//	foundry-samples run basic-agent functions
//
// Every sample can also run against the in-process emulator, without any
// Azure resource:
//
//	foundry-samples run --all --emulator
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
