// Copyright (c) Microsoft. All rights reserved.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-ai-foundry/foundry-samples/go/internal/config"
)

var allKeys = []string{
	config.ProjectEndpoint, config.ModelDeploymentName, config.AgentsAPIVersion,
	config.InferenceEndpoint, config.InferenceAPIVersion, config.PollInterval,
	config.BingConnectionName, config.AzureAIConnectionID, config.AzureAISearchIndexName,
	config.SharePointConnectionID, config.FabricConnectionID, config.OpenAPIConnectionID,
	config.StorageServiceEndpoint, config.MCPServerURL, config.MCPServerLabel,
	config.BrowserAutomationConnectionID,
}

// cleanEnv unsets every config key for the duration of the test.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		prev, ok := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if ok {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.ModelDeploymentName)
	assert.Equal(t, "v1", cfg.AgentsAPIVersion)
	assert.Equal(t, "2024-10-21", cfg.InferenceAPIVersion)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Empty(t, cfg.ProjectEndpoint)
	assert.Equal(t, "gpt-4o", cfg.Lookup(config.ModelDeploymentName))
}

func TestLoad_EnvFile(t *testing.T) {
	cleanEnv(t)
	path := writeEnvFile(t, "PROJECT_ENDPOINT=https://file.example/api/projects/p\n"+
		"POLL_INTERVAL=250ms\n"+
		"BING_CONNECTION_NAME=bing-from-file\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.example/api/projects/p", cfg.ProjectEndpoint)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "bing-from-file", cfg.BingConnectionName)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	cleanEnv(t)
	t.Setenv(config.ProjectEndpoint, "https://env.example/api/projects/p")
	t.Setenv(config.ModelDeploymentName, "gpt-4o-mini")
	path := writeEnvFile(t, "PROJECT_ENDPOINT=https://file.example/api/projects/p\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/api/projects/p", cfg.ProjectEndpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.ModelDeploymentName)
}

func TestLoad_EmptyVariableKeepsDefault(t *testing.T) {
	cleanEnv(t)
	t.Setenv(config.ModelDeploymentName, "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.ModelDeploymentName)
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	for _, v := range []string{"0s", "-1s", "soon"} {
		t.Run(v, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(config.PollInterval, v)
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}
}

func TestMissing(t *testing.T) {
	cleanEnv(t)
	t.Setenv(config.ProjectEndpoint, "https://env.example/api/projects/p")
	t.Setenv(config.SharePointConnectionID, "  ")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Missing(config.ProjectEndpoint, config.ModelDeploymentName))
	assert.Equal(t,
		[]string{config.SharePointConnectionID, config.FabricConnectionID},
		cfg.Missing(config.SharePointConnectionID, config.ProjectEndpoint, config.FabricConnectionID))
	assert.Empty(t, (*config.Config)(nil).Lookup(config.ProjectEndpoint))
}

func TestEmulatorDefaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv(config.ProjectEndpoint, "https://real.example/api/projects/p")
	t.Setenv(config.BingConnectionName, "my-bing")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	emu, err := cfg.EmulatorDefaults("http://127.0.0.1:8089/api/projects/emulator/", "http://127.0.0.1:8089/")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8089/api/projects/emulator", emu.ProjectEndpoint)
	assert.Equal(t, "http://127.0.0.1:8089", emu.InferenceEndpoint)
	assert.Equal(t, "my-bing", emu.BingConnectionName)
	assert.Empty(t, emu.Missing(allKeys...))

	// The receiver is left untouched.
	assert.Equal(t, "https://real.example/api/projects/p", cfg.ProjectEndpoint)
	assert.Contains(t, cfg.Missing(config.FabricConnectionID), config.FabricConnectionID)
}

func TestEmulatorDefaults_NilConfig(t *testing.T) {
	emu, err := (*config.Config)(nil).EmulatorDefaults("http://localhost:1/p", "http://localhost:1")
	require.NoError(t, err)
	assert.Equal(t, time.Second, emu.PollInterval)
	assert.Equal(t, "gpt-4o", emu.ModelDeploymentName)
	assert.Equal(t, "http://localhost:1/p", emu.ProjectEndpoint)
	assert.Equal(t, "http://localhost:1", emu.InferenceEndpoint)
	assert.Empty(t, emu.Missing(allKeys...))
}

func TestEmulatorDefaults_RequiresEndpoints(t *testing.T) {
	for _, tc := range []struct{ project, inference string }{
		{"", "http://localhost:1"},
		{"http://localhost:1/p", " "},
		{"/", ""},
	} {
		_, err := (*config.Config)(nil).EmulatorDefaults(tc.project, tc.inference)
		assert.Error(t, err, "project=%q inference=%q", tc.project, tc.inference)
	}
}
