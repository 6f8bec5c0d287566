// Copyright (c) Microsoft. All rights reserved.

package samples

import (
	"context"
	"strings"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func init() {
	register(Sample{
		Name:        "basic-agent",
		Description: "Create an agent, ask it for a joke and print the conversation.",
		Requires:    requires(),
		Run:         runBasicAgent,
	})
	register(Sample{
		Name:        "additional-messages",
		Description: "Seed a run with extra user and assistant messages.",
		Requires:    requires(),
		Run:         runAdditionalMessages,
	})
	register(Sample{
		Name:        "streaming",
		Description: "Stream a run and print message deltas as they arrive.",
		Requires:    requires(),
		Run:         runStreaming,
	})
	register(Sample{
		Name:        "connected-agent",
		Description: "Let a main agent delegate stock questions to a connected agent.",
		Requires:    requires(),
		Run:         runConnectedAgent,
	})
}

func runBasicAgent(ctx context.Context, env *Env) error {
	agent, done, err := env.createAgent(ctx, "my-agent", "You are a helpful agent", nil)
	if err != nil {
		return err
	}
	defer done()

	_, err = env.ask(ctx, agent, agents.CreateMessageParams{Content: "Hello, tell me a joke"}, nil)
	return err
}

func runAdditionalMessages(ctx context.Context, env *Env) error {
	agent, done, err := env.createAgent(ctx, "Math Tutor",
		"You are a personal electronics tutor. Write and run code to answer questions.", nil)
	if err != nil {
		return err
	}
	defer done()

	thread, doneThread, err := env.createThread(ctx)
	if err != nil {
		return err
	}
	defer doneThread()

	if _, err := env.Agents.CreateMessage(ctx, thread.ID, agents.CreateMessageParams{Content: "What is the impedance formula?"}); err != nil {
		return err
	}
	run, err := env.Agents.CreateAndProcessRun(ctx, thread.ID, agents.CreateRunParams{
		AgentID:                agent.ID,
		AdditionalInstructions: "Please address the user as Jane Doe.",
		AdditionalMessages: []agents.CreateMessageParams{
			{Role: agents.RoleAssistant, Content: "E=mc^2"},
			{Role: agents.RoleUser, Content: "What is the impedance formula?"},
		},
	}, env.pollOptions(nil))
	if run != nil {
		env.printf("Run finished with status: %s", run.Status)
	}
	if err != nil {
		return err
	}
	return env.printMessages(ctx, thread.ID)
}

func runStreaming(ctx context.Context, env *Env) error {
	agent, done, err := env.createAgent(ctx, "my-assistant", "You are helpful assistant", nil)
	if err != nil {
		return err
	}
	defer done()

	thread, doneThread, err := env.createThread(ctx)
	if err != nil {
		return err
	}
	defer doneThread()

	if _, err := env.Agents.CreateMessage(ctx, thread.ID, agents.CreateMessageParams{Content: "Hi, Agent! Draw a graph for a line with a slope of 4 and y-intercept of 9."}); err != nil {
		return err
	}

	var text strings.Builder
	run, err := env.Agents.StreamRun(ctx, thread.ID, agents.CreateRunParams{AgentID: agent.ID}, &agents.StreamOptions{
		Approve: env.approve,
		OnEvent: func(ev agents.RunEvent) {
			switch ev.Event {
			case agents.EventRunCreated, agents.EventRunCompleted, agents.EventRunFailed:
				env.printf("--- %s ---", ev.Event)
			case agents.EventMessageDelta:
				text.WriteString(ev.Text())
			case agents.EventMessageCompleted:
				env.printf("%s", text.String())
				text.Reset()
			}
			if ev.Run != nil {
				env.Metrics.ObserveRun(ev.Run)
			}
		},
	})
	if run != nil {
		env.printf("Run finished with status: %s", run.Status)
	}
	return err
}

func runConnectedAgent(ctx context.Context, env *Env) error {
	stock, doneStock, err := env.createAgent(ctx, "stock_price_bot",
		"Your job is to get the stock price of a company. If you don't know the realtime stock price, return the last known stock price.", nil)
	if err != nil {
		return err
	}
	defer doneStock()

	tools := agents.NewToolSet().AddConnectedAgent(stock.ID, "stock_price_bot", "Gets the stock price of a company")
	agent, done, err := env.createAgent(ctx, "my-agent",
		"You are a helpful assistant, and use the connected agent to get stock prices.", tools)
	if err != nil {
		return err
	}
	defer done()

	_, err = env.ask(ctx, agent, agents.CreateMessageParams{Content: "What is the stock price of Microsoft?"}, nil)
	return err
}
