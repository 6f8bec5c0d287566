// Copyright (c) Microsoft. All rights reserved.

// Package config loads sample settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Environment keys.
const (
	ProjectEndpoint               = "PROJECT_ENDPOINT"
	ModelDeploymentName           = "MODEL_DEPLOYMENT_NAME"
	AgentsAPIVersion              = "AGENTS_API_VERSION"
	InferenceEndpoint             = "INFERENCE_ENDPOINT"
	InferenceAPIVersion           = "INFERENCE_API_VERSION"
	PollInterval                  = "POLL_INTERVAL"
	BingConnectionName            = "BING_CONNECTION_NAME"
	AzureAIConnectionID           = "AZURE_AI_CONNECTION_ID"
	AzureAISearchIndexName        = "AZURE_AI_SEARCH_INDEX_NAME"
	SharePointConnectionID        = "SHAREPOINT_CONNECTION_ID"
	FabricConnectionID            = "FABRIC_CONNECTION_ID"
	OpenAPIConnectionID           = "OPENAPI_CONNECTION_ID"
	StorageServiceEndpoint        = "STORAGE_SERVICE_ENDPOINT"
	MCPServerURL                  = "MCP_SERVER_URL"
	MCPServerLabel                = "MCP_SERVER_LABEL"
	BrowserAutomationConnectionID = "BROWSER_AUTOMATION_CONNECTION_ID"
)

// Config holds the resolved settings. Field tags are the lower-cased
// environment keys.
type Config struct {
	ProjectEndpoint               string        `koanf:"project_endpoint"`
	ModelDeploymentName           string        `koanf:"model_deployment_name"`
	AgentsAPIVersion              string        `koanf:"agents_api_version"`
	InferenceEndpoint             string        `koanf:"inference_endpoint"`
	InferenceAPIVersion           string        `koanf:"inference_api_version"`
	PollInterval                  time.Duration `koanf:"poll_interval"`
	BingConnectionName            string        `koanf:"bing_connection_name"`
	AzureAIConnectionID           string        `koanf:"azure_ai_connection_id"`
	AzureAISearchIndexName        string        `koanf:"azure_ai_search_index_name"`
	SharePointConnectionID        string        `koanf:"sharepoint_connection_id"`
	FabricConnectionID            string        `koanf:"fabric_connection_id"`
	OpenAPIConnectionID           string        `koanf:"openapi_connection_id"`
	StorageServiceEndpoint        string        `koanf:"storage_service_endpoint"`
	MCPServerURL                  string        `koanf:"mcp_server_url"`
	MCPServerLabel                string        `koanf:"mcp_server_label"`
	BrowserAutomationConnectionID string        `koanf:"browser_automation_connection_id"`

	k *koanf.Koanf
}

// Defaults returns the settings used when a key is not set.
func Defaults() Config {
	return Config{
		ModelDeploymentName: "gpt-4o",
		AgentsAPIVersion:    "v1",
		InferenceAPIVersion: "2024-10-21",
		PollInterval:        time.Second,
		MCPServerURL:        "https://gitmcp.io/Azure/azure-rest-api-specs",
		MCPServerLabel:      "github",
	}
}

// Load reads envFile (".env" when empty) into the process environment,
// ignoring a missing file, then resolves every key over [Defaults].
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("", ".", fromEnv), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	return resolve(k)
}

// fromEnv maps a variable to its key; empty variables count as unset.
func fromEnv(key, value string) (string, interface{}) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return strings.ToLower(key), value
}

func resolve(k *koanf.Koanf) (*Config, error) {
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", PollInterval, c.PollInterval)
	}
	c.k = k
	return &c, nil
}

// Lookup returns the value of an environment key, or "" when unset.
func (c *Config) Lookup(key string) string {
	if c == nil || c.k == nil {
		return ""
	}
	return strings.TrimSpace(c.k.String(strings.ToLower(key)))
}

// Missing returns the keys that have no value, in the order given.
func (c *Config) Missing(keys ...string) []string {
	var out []string
	for _, key := range keys {
		if c.Lookup(key) == "" {
			out = append(out, key)
		}
	}
	return out
}

// emulatorPlaceholders fill connection settings the emulator accepts as is.
var emulatorPlaceholders = map[string]string{
	BingConnectionName:            "bing-emulator",
	AzureAIConnectionID:           connectionID("search"),
	AzureAISearchIndexName:        "products",
	SharePointConnectionID:        connectionID("sharepoint"),
	FabricConnectionID:            connectionID("fabric"),
	OpenAPIConnectionID:           connectionID("openapi"),
	StorageServiceEndpoint:        "https://emulator.queue.core.windows.net",
	BrowserAutomationConnectionID: connectionID("playwright"),
}

func connectionID(name string) string {
	return "/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/emulator" +
		"/providers/Microsoft.CognitiveServices/accounts/emulator/projects/emulator/connections/" + name
}

// EmulatorDefaults points the project and inference endpoints at an
// emulator and fills every unset connection setting with a placeholder, so
// that all samples can run against it.
func (c *Config) EmulatorDefaults(projectEndpoint, inferenceEndpoint string) (*Config, error) {
	projectEndpoint = strings.TrimRight(strings.TrimSpace(projectEndpoint), "/")
	inferenceEndpoint = strings.TrimRight(strings.TrimSpace(inferenceEndpoint), "/")
	if projectEndpoint == "" || inferenceEndpoint == "" {
		return nil, errors.New("emulator project and inference endpoints are required")
	}
	var k *koanf.Koanf
	if c != nil && c.k != nil {
		k = c.k.Copy()
	} else {
		k = koanf.New(".")
		if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
			return nil, fmt.Errorf("load defaults: %w", err)
		}
	}
	set := map[string]string{
		ProjectEndpoint:   projectEndpoint,
		InferenceEndpoint: inferenceEndpoint,
	}
	for key, v := range emulatorPlaceholders {
		if strings.TrimSpace(k.String(strings.ToLower(key))) == "" {
			set[key] = v
		}
	}
	for key, v := range set {
		if err := k.Set(strings.ToLower(key), v); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return resolve(k)
}
