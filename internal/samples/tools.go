// Copyright (c) Microsoft. All rights reserved.

package samples

import (
	"context"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
)

func init() {
	register(Sample{
		Name:        "openapi",
		Description: "Call the weather and countries REST APIs through OpenAPI tools.",
		Requires:    requires(),
		Run:         runOpenAPI,
	})
	register(Sample{
		Name:        "openapi-connection",
		Description: "Call an OpenAPI tool that authenticates with a project connection.",
		Requires:    requires(config.OpenAPIConnectionID),
		Run:         runOpenAPIConnection,
	})
	register(Sample{
		Name:        "bing-grounding",
		Description: "Ground answers in Bing search results and print the URL citations.",
		Requires:    requires(config.BingConnectionName),
		Run:         runBingGrounding,
	})
	register(Sample{
		Name:        "azure-ai-search",
		Description: "Answer from an Azure AI Search index.",
		Requires:    requires(config.AzureAIConnectionID, config.AzureAISearchIndexName),
		Run:         runAzureAISearch,
	})
	register(Sample{
		Name:        "sharepoint",
		Description: "Ground answers in a SharePoint site.",
		Requires:    requires(config.SharePointConnectionID),
		Run:         runSharepoint,
	})
	register(Sample{
		Name:        "fabric",
		Description: "Ask a Microsoft Fabric data agent.",
		Requires:    requires(config.FabricConnectionID),
		Run:         runFabric,
	})
	register(Sample{
		Name:        "azure-functions",
		Description: "Call a queue-triggered Azure Function.",
		Requires:    requires(config.StorageServiceEndpoint),
		Run:         runAzureFunctions,
	})
	register(Sample{
		Name:        "mcp",
		Description: "Use a remote MCP server and approve its tool calls.",
		Requires:    requires(config.MCPServerURL, config.MCPServerLabel),
		Run:         runMCP,
	})
	register(Sample{
		Name:        "browser-automation",
		Description: "Drive a browser through a Playwright workspace connection.",
		Requires:    requires(config.BrowserAutomationConnectionID),
		Run:         runBrowserAutomation,
	})
}

// askWithTools creates an agent with tools and asks it one question.
func askWithTools(ctx context.Context, env *Env, name, instructions string, tools *agents.ToolSet, prompt string) error {
	agent, done, err := env.createAgent(ctx, name, instructions, tools)
	if err != nil {
		return err
	}
	defer done()

	_, err = env.ask(ctx, agent, agents.CreateMessageParams{Content: prompt}, tools.Functions())
	return err
}

func runOpenAPI(ctx context.Context, env *Env) error {
	weather, err := openAPISpec("weather_openapi.json")
	if err != nil {
		return err
	}
	countries, err := openAPISpec("countries.yaml")
	if err != nil {
		return err
	}
	tools := agents.NewToolSet().
		AddOpenAPI(agents.OpenAPIDefinition{
			Name:        "get_weather",
			Description: "Retrieve weather information for a location",
			Spec:        weather,
			Auth:        agents.OpenAPIAnonymousAuth(),
		}).
		AddOpenAPI(agents.OpenAPIDefinition{
			Name:        "get_countries",
			Description: "Retrieve a list of countries",
			Spec:        countries,
			Auth:        agents.OpenAPIAnonymousAuth(),
		})
	return askWithTools(ctx, env, "my-agent", "You are a helpful agent", tools,
		"What's the weather in Seattle and What is the name and population of the country that uses currency with abbreviation THB?")
}

func runOpenAPIConnection(ctx context.Context, env *Env) error {
	spec, err := openAPISpec("weather_openapi.json")
	if err != nil {
		return err
	}
	tools := agents.NewToolSet().AddOpenAPI(agents.OpenAPIDefinition{
		Name:        "get_weather",
		Description: "Retrieve weather information for a location",
		Spec:        spec,
		Auth:        agents.OpenAPIConnectionAuth(env.Config.OpenAPIConnectionID),
	})
	return askWithTools(ctx, env, "my-agent", "You are a helpful agent", tools,
		"What is the weather in Seattle today?")
}

func runBingGrounding(ctx context.Context, env *Env) error {
	tools := agents.NewToolSet().AddBingGrounding(env.Config.BingConnectionName)
	return askWithTools(ctx, env, "my-agent", "You are a helpful agent", tools,
		"What is the weather in Seattle today?")
}

func runAzureAISearch(ctx context.Context, env *Env) error {
	tools := agents.NewToolSet().AddAzureAISearch(agents.AzureAISearchIndex{
		IndexConnectionID: env.Config.AzureAIConnectionID,
		IndexName:         env.Config.AzureAISearchIndexName,
		QueryType:         agents.AzureAISearchSimple,
		TopK:              3,
	})
	return askWithTools(ctx, env, "my-agent", "You are a helpful agent", tools,
		"What is the temperature rating of the cozynights sleeping bag?")
}

func runSharepoint(ctx context.Context, env *Env) error {
	tools := agents.NewToolSet().AddSharepoint(env.Config.SharePointConnectionID)
	return askWithTools(ctx, env, "my-agent", "You are a helpful agent", tools,
		"Hello, summarize the key points of the documents on the site.")
}

func runFabric(ctx context.Context, env *Env) error {
	tools := agents.NewToolSet().AddFabric(env.Config.FabricConnectionID)
	return askWithTools(ctx, env, "my-agent", "You are a helpful agent", tools,
		"What insights can you provide from the Fabric resource?")
}

func runAzureFunctions(ctx context.Context, env *Env) error {
	endpoint := env.Config.StorageServiceEndpoint
	tools := agents.NewToolSet().AddAzureFunction(agents.AzureFunctionDefinition{
		Function: agents.FunctionDefinition{
			Name:        "foo",
			Description: "Get answers from the foo bot.",
			Parameters: []byte(`{"type":"object","properties":{` +
				`"query":{"type":"string","description":"The question to ask."},` +
				`"outputqueueuri":{"type":"string","description":"The full output queue uri."}}}`),
		},
		InputBinding: agents.AzureFunctionBinding{
			Type:         "storage_queue",
			StorageQueue: agents.AzureFunctionStorageQueue{StorageServiceEndpoint: endpoint, QueueName: "azure-function-foo-input"},
		},
		OutputBinding: agents.AzureFunctionBinding{
			Type:         "storage_queue",
			StorageQueue: agents.AzureFunctionStorageQueue{StorageServiceEndpoint: endpoint, QueueName: "azure-function-tool-output"},
		},
	})
	instructions := "You are a helpful support agent. Use the provided function any time the prompt contains the string " +
		"'What would foo say?'. When you invoke the function, ALWAYS specify the output queue uri parameter as '" +
		endpoint + "/azure-function-tool-output'. Always responds with \"Foo says\" and then the response from the tool."
	return askWithTools(ctx, env, "azure-function-agent-foo", instructions, tools,
		"What is the most prevalent element in the universe? What would foo say?")
}

func runMCP(ctx context.Context, env *Env) error {
	label := env.Config.MCPServerLabel
	tools := agents.NewToolSet().
		AddMCP(label, env.Config.MCPServerURL, []string{"search_azure_rest_api_code"}, agents.MCPApprovalAlways).
		SetMCPHeader(label, "SuperSecret", "123456")
	return askWithTools(ctx, env, "my-mcp-agent",
		"You are a helpful agent that can use MCP tools to assist users. Use the available MCP tools to answer questions and perform tasks.",
		tools, "Please summarize the Azure REST API specifications Readme")
}

func runBrowserAutomation(ctx context.Context, env *Env) error {
	tools := agents.NewToolSet().AddBrowserAutomation(env.Config.BrowserAutomationConnectionID)
	return askWithTools(ctx, env, "browser-automation-agent",
		"You are an agent that navigates web pages to answer questions.", tools,
		"Find the latest closing price of MSFT on finance.yahoo.com.")
}
