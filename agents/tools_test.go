// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

func TestToolSet_Empty(t *testing.T) {
	var s agents.ToolSet
	assert.Nil(t, s.Definitions())
	assert.Nil(t, s.Resources())
	assert.Zero(t, s.Functions().Len())
}

func TestToolSet_MergesResources(t *testing.T) {
	s := agents.NewToolSet().
		AddCodeInterpreter("file-1").
		AddCodeInterpreter("file-2", "file-1").
		AddFileSearch("vs-1").
		AddFileSearch("vs-1", "vs-2")

	defs := s.Definitions()
	require.Len(t, defs, 2, "repeated tools are declared once")
	assert.Equal(t, agents.ToolTypeCodeInterpreter, defs[0].Type)
	assert.Equal(t, agents.ToolTypeFileSearch, defs[1].Type)

	res := s.Resources()
	require.NotNil(t, res)
	assert.Equal(t, []string{"file-1", "file-2"}, res.CodeInterpreter.FileIDs)
	assert.Equal(t, []string{"vs-1", "vs-2"}, res.FileSearch.VectorStoreIDs)
}

func TestToolSet_ConnectionTools(t *testing.T) {
	s := agents.NewToolSet().
		AddBingGrounding("bing-1").
		AddBingGrounding("bing-1").
		AddSharepoint("sp-1").
		AddSharepoint("sp-2").
		AddFabric("fabric-1").
		AddAzureAISearch(agents.AzureAISearchIndex{
			IndexConnectionID: "search-conn",
			IndexName:         "products",
			QueryType:         agents.AzureAISearchVectorSemanticHybrid,
			TopK:              5,
		}).
		AddBrowserAutomation("playwright-1")

	defs := s.Definitions()
	require.Len(t, defs, 5)
	assert.Len(t, defs[0].BingGrounding.SearchConfigurations, 1)
	assert.Len(t, defs[1].SharepointGrounding.Connections, 2)
	assert.Nil(t, defs[1].FabricDataAgent)
	assert.Equal(t, "fabric-1", defs[2].FabricDataAgent.Connections[0].ConnectionID)
	assert.Equal(t, agents.ToolTypeAzureAISearch, defs[3].Type)
	assert.Equal(t, "playwright-1", defs[4].BrowserAutomation.Connection.ID)

	res := s.Resources()
	require.NotNil(t, res.AzureAISearch)
	assert.Equal(t, "products", res.AzureAISearch.Indexes[0].IndexName)

	b, err := json.Marshal(defs[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sharepoint_grounding","sharepoint_grounding":{"connections":[{"connection_id":"sp-1"},{"connection_id":"sp-2"}]}}`, string(b))
}

func TestToolSet_NamedToolsReplace(t *testing.T) {
	spec := json.RawMessage(`{"openapi":"3.0.0"}`)
	s := agents.NewToolSet().
		AddOpenAPI(agents.OpenAPIDefinition{Name: "weather", Description: "old", Spec: spec, Auth: agents.OpenAPIAnonymousAuth()}).
		AddOpenAPI(agents.OpenAPIDefinition{Name: "countries", Spec: spec, Auth: agents.OpenAPIAnonymousAuth()}).
		AddOpenAPI(agents.OpenAPIDefinition{Name: "weather", Description: "new", Spec: spec, Auth: agents.OpenAPIAnonymousAuth()}).
		AddConnectedAgent("asst_1", "stock_price_bot", "Gets stock prices").
		AddFunctions(weatherTool(), weatherTool())

	defs := s.Definitions()
	require.Len(t, defs, 4)
	assert.Equal(t, "new", defs[0].OpenAPI.Description)
	assert.Equal(t, "countries", defs[1].OpenAPI.Name)
	assert.Equal(t, "stock_price_bot", defs[2].ConnectedAgent.Name)
	assert.Equal(t, "get_weather", defs[3].Function.Name)
	assert.Equal(t, 1, s.Functions().Len())
	_, ok := s.Functions().Get("get_weather")
	assert.True(t, ok)
}

func TestToolSet_MCP(t *testing.T) {
	s := agents.NewToolSet().
		AddMCP("github", "https://gitmcp.io/Azure/azure-rest-api-specs", []string{"search"}, agents.MCPApprovalAlways).
		SetMCPHeader("github", "Authorization", "Bearer x").
		AddMCP("github", "https://gitmcp.io/Azure/azure-rest-api-specs", nil, agents.MCPApprovalNever).
		SetMCPHeader("unknown", "k", "v")

	defs := s.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, agents.MCPApprovalNever, defs[0].RequireApproval)
	assert.Nil(t, defs[0].AllowedTools)

	res := s.Resources()
	require.Len(t, res.MCP, 1)
	assert.Equal(t, agents.MCPApprovalNever, res.MCP[0].RequireApproval)
	assert.Equal(t, "Bearer x", res.MCP[0].Headers["Authorization"], "headers survive re-registration")

	b, err := json.Marshal(defs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"mcp","server_label":"github","server_url":"https://gitmcp.io/Azure/azure-rest-api-specs","require_approval":"never"}`, string(b))
}

func TestToolSet_AzureFunctionWire(t *testing.T) {
	fn := agents.AzureFunctionDefinition{
		Function: agents.FunctionDefinition{Name: "foo", Description: "Get answers from the foo bot.", Parameters: json.RawMessage(`{"type":"object"}`)},
		InputBinding: agents.AzureFunctionBinding{
			Type:         "storage_queue",
			StorageQueue: agents.AzureFunctionStorageQueue{StorageServiceEndpoint: "https://acct.queue.core.windows.net", QueueName: "azure-function-foo-input"},
		},
		OutputBinding: agents.AzureFunctionBinding{
			Type:         "storage_queue",
			StorageQueue: agents.AzureFunctionStorageQueue{StorageServiceEndpoint: "https://acct.queue.core.windows.net", QueueName: "azure-function-tool-output"},
		},
	}
	defs := agents.NewToolSet().AddAzureFunction(fn).Definitions()
	require.Len(t, defs, 1)

	b, err := json.Marshal(defs[0])
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))
	af := wire["azure_function"].(map[string]any)
	in := af["input_binding"].(map[string]any)["storage_queue"].(map[string]any)
	assert.Equal(t, "https://acct.queue.core.windows.net", in["queue_service_endpoint"])
	assert.Equal(t, "azure-function-foo-input", in["queue_name"])
}
