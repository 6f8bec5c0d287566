// Copyright (c) Microsoft. All rights reserved.

package agents

import "encoding/json"

// ToolType is the discriminator of a [ToolDefinition].
type ToolType string

const (
	ToolTypeFunction            ToolType = "function"
	ToolTypeCodeInterpreter     ToolType = "code_interpreter"
	ToolTypeFileSearch          ToolType = "file_search"
	ToolTypeBingGrounding       ToolType = "bing_grounding"
	ToolTypeAzureAISearch       ToolType = "azure_ai_search"
	ToolTypeOpenAPI             ToolType = "openapi"
	ToolTypeSharepointGrounding ToolType = "sharepoint_grounding"
	ToolTypeFabricDataAgent     ToolType = "fabric_dataagent"
	ToolTypeAzureFunction       ToolType = "azure_function"
	ToolTypeConnectedAgent      ToolType = "connected_agent"
	ToolTypeMCP                 ToolType = "mcp"
	ToolTypeBrowserAutomation   ToolType = "browser_automation"
)

// ToolDefinition is one entry of an agent's tools list. Type selects which
// of the optional fields is populated; code_interpreter and file_search
// carry no fields and take their inputs from [ToolResources].
type ToolDefinition struct {
	Type ToolType `json:"type"`

	Function            *FunctionDefinition       `json:"function,omitempty"`
	BingGrounding       *BingGroundingDefinition  `json:"bing_grounding,omitempty"`
	OpenAPI             *OpenAPIDefinition        `json:"openapi,omitempty"`
	SharepointGrounding *ConnectionListDefinition `json:"sharepoint_grounding,omitempty"`
	FabricDataAgent     *ConnectionListDefinition `json:"fabric_dataagent,omitempty"`
	AzureFunction       *AzureFunctionDefinition  `json:"azure_function,omitempty"`
	ConnectedAgent      *ConnectedAgentDefinition `json:"connected_agent,omitempty"`
	BrowserAutomation   *BrowserAutomationConfig  `json:"browser_automation,omitempty"`

	// MCP server fields sit at the top level of the definition.
	ServerLabel     string   `json:"server_label,omitempty"`
	ServerURL       string   `json:"server_url,omitempty"`
	AllowedTools    []string `json:"allowed_tools,omitempty"`
	RequireApproval string   `json:"require_approval,omitempty"`
}

// FunctionDefinition declares a client-executed function.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// BingGroundingDefinition configures grounding with Bing search.
type BingGroundingDefinition struct {
	SearchConfigurations []BingSearchConfiguration `json:"search_configurations"`
}

// BingSearchConfiguration references a Bing connection of the project.
type BingSearchConfiguration struct {
	ConnectionID string `json:"connection_id"`
	Market       string `json:"market,omitempty"`
	Count        int    `json:"count,omitempty"`
	Freshness    string `json:"freshness,omitempty"`
}

// ConnectionListDefinition is the payload of SharePoint and Fabric tools.
type ConnectionListDefinition struct {
	Connections []ToolConnection `json:"connections"`
}

// ToolConnection references a project connection by ID.
type ToolConnection struct {
	ConnectionID string `json:"connection_id"`
}

// AzureFunctionDefinition declares a function executed by Azure Functions
// through storage queues.
type AzureFunctionDefinition struct {
	Function      FunctionDefinition   `json:"function"`
	InputBinding  AzureFunctionBinding `json:"input_binding"`
	OutputBinding AzureFunctionBinding `json:"output_binding"`
}

// AzureFunctionBinding binds a function to a storage queue.
type AzureFunctionBinding struct {
	Type         string                    `json:"type"`
	StorageQueue AzureFunctionStorageQueue `json:"storage_queue"`
}

// AzureFunctionStorageQueue names a queue on a storage account.
type AzureFunctionStorageQueue struct {
	StorageServiceEndpoint string `json:"queue_service_endpoint"`
	QueueName              string `json:"queue_name"`
}

// ConnectedAgentDefinition delegates to another agent of the project.
type ConnectedAgentDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BrowserAutomationConfig references the Playwright connection used by the
// browser automation tool.
type BrowserAutomationConfig struct {
	Connection BrowserAutomationConnection `json:"connection"`
}

// BrowserAutomationConnection references a serverless Playwright connection.
type BrowserAutomationConnection struct {
	ID string `json:"id"`
}

// ToolResources carries the inputs of resource-backed tools.
type ToolResources struct {
	CodeInterpreter *CodeInterpreterResource `json:"code_interpreter,omitempty"`
	FileSearch      *FileSearchResource      `json:"file_search,omitempty"`
	AzureAISearch   *AzureAISearchResource   `json:"azure_ai_search,omitempty"`
	MCP             []MCPToolResource        `json:"mcp,omitempty"`
}

// CodeInterpreterResource lists files available to the code interpreter.
type CodeInterpreterResource struct {
	FileIDs []string `json:"file_ids,omitempty"`
}

// FileSearchResource lists vector stores searched by file search.
type FileSearchResource struct {
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

// AzureAISearchResource lists the search indexes of the azure_ai_search tool.
type AzureAISearchResource struct {
	Indexes []AzureAISearchIndex `json:"indexes"`
}

// AzureAISearchQueryType selects how the index is queried.
type AzureAISearchQueryType string

const (
	AzureAISearchSimple               AzureAISearchQueryType = "simple"
	AzureAISearchSemantic             AzureAISearchQueryType = "semantic"
	AzureAISearchVector               AzureAISearchQueryType = "vector"
	AzureAISearchVectorSimpleHybrid   AzureAISearchQueryType = "vector_simple_hybrid"
	AzureAISearchVectorSemanticHybrid AzureAISearchQueryType = "vector_semantic_hybrid"
)

// AzureAISearchIndex references an index through a project connection.
type AzureAISearchIndex struct {
	IndexConnectionID string                 `json:"index_connection_id"`
	IndexName         string                 `json:"index_name"`
	QueryType         AzureAISearchQueryType `json:"query_type,omitempty"`
	TopK              int                    `json:"top_k,omitempty"`
	Filter            string                 `json:"filter,omitempty"`
}

// MCPToolResource holds per-run settings of one MCP server.
type MCPToolResource struct {
	ServerLabel     string            `json:"server_label"`
	Headers         map[string]string `json:"headers,omitempty"`
	RequireApproval string            `json:"require_approval,omitempty"`
}

// MCP approval modes.
const (
	MCPApprovalNever  = "never"
	MCPApprovalAlways = "always"
)

// ToolSet accumulates tool definitions, their resources and the local
// functions that answer function calls. The zero value is ready to use.
type ToolSet struct {
	defs      []ToolDefinition
	index     map[string]int
	resources ToolResources
	functions FunctionSet
}

// NewToolSet returns an empty [ToolSet].
func NewToolSet() *ToolSet { return &ToolSet{} }

// put stores def under key, replacing an earlier definition with the same key.
func (s *ToolSet) put(key string, def ToolDefinition) *ToolDefinition {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[key]; ok {
		s.defs[i] = def
		return &s.defs[i]
	}
	s.index[key] = len(s.defs)
	s.defs = append(s.defs, def)
	return &s.defs[len(s.defs)-1]
}

func (s *ToolSet) lookup(key string) *ToolDefinition {
	if i, ok := s.index[key]; ok {
		return &s.defs[i]
	}
	return nil
}

// AddFunctions registers local functions. A function with the name of an
// earlier one replaces it.
func (s *ToolSet) AddFunctions(tools ...Tool) *ToolSet {
	for _, t := range tools {
		s.functions.Add(t)
		s.put("function/"+t.Name(), FunctionToolDefinition(t))
	}
	return s
}

// AddCodeInterpreter enables the code interpreter with optional input files.
func (s *ToolSet) AddCodeInterpreter(fileIDs ...string) *ToolSet {
	if s.lookup(string(ToolTypeCodeInterpreter)) == nil {
		s.put(string(ToolTypeCodeInterpreter), ToolDefinition{Type: ToolTypeCodeInterpreter})
	}
	if s.resources.CodeInterpreter == nil {
		s.resources.CodeInterpreter = &CodeInterpreterResource{}
	}
	s.resources.CodeInterpreter.FileIDs = appendUnique(s.resources.CodeInterpreter.FileIDs, fileIDs...)
	return s
}

// AddFileSearch enables file search over the given vector stores.
func (s *ToolSet) AddFileSearch(vectorStoreIDs ...string) *ToolSet {
	if s.lookup(string(ToolTypeFileSearch)) == nil {
		s.put(string(ToolTypeFileSearch), ToolDefinition{Type: ToolTypeFileSearch})
	}
	if s.resources.FileSearch == nil {
		s.resources.FileSearch = &FileSearchResource{}
	}
	s.resources.FileSearch.VectorStoreIDs = appendUnique(s.resources.FileSearch.VectorStoreIDs, vectorStoreIDs...)
	return s
}

// AddBingGrounding enables Bing grounding through a Bing connection.
func (s *ToolSet) AddBingGrounding(connectionID string) *ToolSet {
	def := s.lookup(string(ToolTypeBingGrounding))
	if def == nil {
		def = s.put(string(ToolTypeBingGrounding), ToolDefinition{
			Type:          ToolTypeBingGrounding,
			BingGrounding: &BingGroundingDefinition{},
		})
	}
	for _, c := range def.BingGrounding.SearchConfigurations {
		if c.ConnectionID == connectionID {
			return s
		}
	}
	def.BingGrounding.SearchConfigurations = append(def.BingGrounding.SearchConfigurations,
		BingSearchConfiguration{ConnectionID: connectionID})
	return s
}

// AddAzureAISearch enables Azure AI Search over idx.
func (s *ToolSet) AddAzureAISearch(idx AzureAISearchIndex) *ToolSet {
	if s.lookup(string(ToolTypeAzureAISearch)) == nil {
		s.put(string(ToolTypeAzureAISearch), ToolDefinition{Type: ToolTypeAzureAISearch})
	}
	if s.resources.AzureAISearch == nil {
		s.resources.AzureAISearch = &AzureAISearchResource{}
	}
	s.resources.AzureAISearch.Indexes = append(s.resources.AzureAISearch.Indexes, idx)
	return s
}

// AddOpenAPI registers an OpenAPI tool. A tool with the same name replaces
// the earlier one.
func (s *ToolSet) AddOpenAPI(def OpenAPIDefinition) *ToolSet {
	s.put("openapi/"+def.Name, ToolDefinition{Type: ToolTypeOpenAPI, OpenAPI: &def})
	return s
}

// AddSharepoint enables SharePoint grounding through a connection.
func (s *ToolSet) AddSharepoint(connectionID string) *ToolSet {
	s.addConnection(ToolTypeSharepointGrounding, connectionID)
	return s
}

// AddFabric enables the Microsoft Fabric data agent through a connection.
func (s *ToolSet) AddFabric(connectionID string) *ToolSet {
	s.addConnection(ToolTypeFabricDataAgent, connectionID)
	return s
}

func (s *ToolSet) addConnection(typ ToolType, connectionID string) {
	def := s.lookup(string(typ))
	if def == nil {
		d := ToolDefinition{Type: typ}
		list := &ConnectionListDefinition{}
		if typ == ToolTypeSharepointGrounding {
			d.SharepointGrounding = list
		} else {
			d.FabricDataAgent = list
		}
		def = s.put(string(typ), d)
	}
	list := def.SharepointGrounding
	if list == nil {
		list = def.FabricDataAgent
	}
	for _, c := range list.Connections {
		if c.ConnectionID == connectionID {
			return
		}
	}
	list.Connections = append(list.Connections, ToolConnection{ConnectionID: connectionID})
}

// AddAzureFunction registers a queue-triggered Azure Function.
func (s *ToolSet) AddAzureFunction(def AzureFunctionDefinition) *ToolSet {
	s.put("azure_function/"+def.Function.Name, ToolDefinition{Type: ToolTypeAzureFunction, AzureFunction: &def})
	return s
}

// AddConnectedAgent lets the agent delegate to another agent by ID.
func (s *ToolSet) AddConnectedAgent(id, name, description string) *ToolSet {
	s.put("connected_agent/"+name, ToolDefinition{
		Type:           ToolTypeConnectedAgent,
		ConnectedAgent: &ConnectedAgentDefinition{ID: id, Name: name, Description: description},
	})
	return s
}

// AddMCP registers an MCP server. requireApproval is "never", "always" or
// empty for the service default.
func (s *ToolSet) AddMCP(label, serverURL string, allowedTools []string, requireApproval string) *ToolSet {
	s.put("mcp/"+label, ToolDefinition{
		Type:            ToolTypeMCP,
		ServerLabel:     label,
		ServerURL:       serverURL,
		AllowedTools:    allowedTools,
		RequireApproval: requireApproval,
	})
	res := MCPToolResource{ServerLabel: label, RequireApproval: requireApproval}
	for i := range s.resources.MCP {
		if s.resources.MCP[i].ServerLabel == label {
			res.Headers = s.resources.MCP[i].Headers
			s.resources.MCP[i] = res
			return s
		}
	}
	s.resources.MCP = append(s.resources.MCP, res)
	return s
}

// SetMCPHeader sets a header sent to the MCP server registered under label.
func (s *ToolSet) SetMCPHeader(label, key, value string) *ToolSet {
	for i := range s.resources.MCP {
		if s.resources.MCP[i].ServerLabel == label {
			if s.resources.MCP[i].Headers == nil {
				s.resources.MCP[i].Headers = make(map[string]string)
			}
			s.resources.MCP[i].Headers[key] = value
		}
	}
	return s
}

// AddBrowserAutomation enables browser automation through a Playwright connection.
func (s *ToolSet) AddBrowserAutomation(connectionID string) *ToolSet {
	s.put(string(ToolTypeBrowserAutomation), ToolDefinition{
		Type:              ToolTypeBrowserAutomation,
		BrowserAutomation: &BrowserAutomationConfig{Connection: BrowserAutomationConnection{ID: connectionID}},
	})
	return s
}

// Definitions returns the accumulated tool definitions in insertion order.
func (s *ToolSet) Definitions() []ToolDefinition {
	if len(s.defs) == 0 {
		return nil
	}
	out := make([]ToolDefinition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Resources returns the accumulated tool resources, or nil if there are none.
func (s *ToolSet) Resources() *ToolResources {
	r := s.resources
	if r.CodeInterpreter == nil && r.FileSearch == nil && r.AzureAISearch == nil && len(r.MCP) == 0 {
		return nil
	}
	return &r
}

// Functions returns the local functions registered with [ToolSet.AddFunctions].
func (s *ToolSet) Functions() *FunctionSet { return &s.functions }

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
