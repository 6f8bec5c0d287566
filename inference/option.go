// Copyright (c) Microsoft. All rights reserved.

package inference

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// DefaultAPIVersion is the chat completions API version sent when none is configured.
const DefaultAPIVersion = "2024-10-21"

// clientConfig holds resolved configuration for the inference client.
type clientConfig struct {
	model           string
	apiVersion      string
	apiKey          string
	httpClient      *http.Client
	azureCredential azcore.TokenCredential
}

// Option configures an inference [Client].
type Option func(*clientConfig)

// WithModel sets the model deployment name.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithAPIVersion overrides [DefaultAPIVersion].
func WithAPIVersion(version string) Option {
	return func(c *clientConfig) { c.apiVersion = version }
}

// WithAPIKey authenticates requests with the api-key header.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithAzureCredential enables Entra ID token authentication using the provided credential.
// When set, it takes precedence over [WithAPIKey].
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) { c.azureCredential = cred }
}
