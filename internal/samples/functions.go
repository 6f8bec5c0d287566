// Copyright (c) Microsoft. All rights reserved.

package samples

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func init() {
	register(Sample{
		Name:        "functions",
		Description: "Answer function calls of a run with local Go functions.",
		Requires:    requires(),
		Run:         runFunctions,
	})
}

type datetimeArgs struct {
	Format string `json:"format,omitempty" jsonschema:"description=Go time layout of the result"`
}

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=The location to fetch weather for,required"`
}

type emailArgs struct {
	Recipient string `json:"recipient" jsonschema:"description=Email address of the recipient,required"`
	Subject   string `json:"subject" jsonschema:"description=Subject of the email,required"`
	Body      string `json:"body" jsonschema:"description=Body of the email,required"`
}

// weatherReports is the canned data behind fetch_weather.
var weatherReports = map[string]string{
	"new york": "Sunny, 25°C",
	"london":   "Cloudy, 18°C",
	"tokyo":    "Rainy, 22°C",
}

// userFunctions returns the functions the sample agent may call. now is
// injected so output stays deterministic under test.
func userFunctions(now func() time.Time) []agents.Tool {
	return []agents.Tool{
		agents.NewTypedTool("fetch_current_datetime", "Get the current time as a formatted string.",
			func(ctx context.Context, a datetimeArgs) (any, error) {
				layout := a.Format
				if layout == "" {
					layout = time.DateTime
				}
				return map[string]string{"current_time": now().Format(layout)}, nil
			}),
		agents.NewTypedTool("fetch_weather", "Fetch the weather information for the specified location.",
			func(ctx context.Context, a weatherArgs) (any, error) {
				report, ok := weatherReports[strings.ToLower(a.Location)]
				if !ok {
					report = "Weather data not available for this location."
				}
				return map[string]string{"weather": report}, nil
			}),
		agents.NewTypedTool("send_email", "Send an email to a recipient.",
			func(ctx context.Context, a emailArgs) (any, error) {
				if !strings.Contains(a.Recipient, "@") {
					return nil, fmt.Errorf("invalid recipient %q", a.Recipient)
				}
				return map[string]string{"message": "Email successfully sent to " + a.Recipient + "."}, nil
			}),
	}
}

func runFunctions(ctx context.Context, env *Env) error {
	fns := userFunctions(time.Now)
	tools := agents.NewToolSet().AddFunctions(fns...)
	agent, done, err := env.createAgent(ctx, "my-agent", "You are a helpful agent", tools)
	if err != nil {
		return err
	}
	defer done()

	_, err = env.ask(ctx, agent, agents.CreateMessageParams{
		Content: "Hello, send an email with the datetime and weather information in New York?",
	}, tools.Functions())
	return err
}
