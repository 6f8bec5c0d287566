// Copyright (c) Microsoft. All rights reserved.

package samples

import (
	"context"
	"errors"
	"strings"

	"github.com/azure-ai-foundry/foundry-samples/go/inference"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
)

func init() {
	register(Sample{
		Name:        "inference",
		Description: "Call the chat completions endpoint of a model deployment, then stream a second answer.",
		Requires:    []string{config.InferenceEndpoint, config.ModelDeploymentName},
		Run:         runInference,
	})
}

func runInference(ctx context.Context, env *Env) error {
	if env.Inference == nil {
		return errors.New("inference client is not configured")
	}
	resp, err := env.Inference.Complete(ctx, []inference.Message{
		inference.SystemMessage("You are a helpful writing assistant"),
		inference.UserMessage("How many feet are in a mile?"),
	})
	if err != nil {
		return err
	}
	env.printf("%s", resp.Text)
	env.printf("Finish reason: %s, total tokens: %d", resp.FinishReason, resp.Usage.TotalTokens)

	stream, err := env.Inference.Stream(ctx, []inference.Message{
		inference.UserMessage("Write me a poem about flowers"),
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		delta, ok, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		sb.WriteString(delta)
	}
	env.printf("%s", sb.String())
	return nil
}
