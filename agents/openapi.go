// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// OpenAPIDefinition declares an OpenAPI tool. Spec is forwarded verbatim.
type OpenAPIDefinition struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Spec          json.RawMessage `json:"spec"`
	Auth          OpenAPIAuth     `json:"auth"`
	DefaultParams []string        `json:"default_params,omitempty"`
}

// OpenAPIAuthType selects how the service authenticates against the API.
type OpenAPIAuthType string

const (
	OpenAPIAuthAnonymous       OpenAPIAuthType = "anonymous"
	OpenAPIAuthConnection      OpenAPIAuthType = "connection"
	OpenAPIAuthManagedIdentity OpenAPIAuthType = "managed_identity"
)

// OpenAPIAuth is the auth block of an OpenAPI tool.
type OpenAPIAuth struct {
	Type           OpenAPIAuthType        `json:"type"`
	SecurityScheme *OpenAPISecurityScheme `json:"security_scheme,omitempty"`
}

// OpenAPISecurityScheme holds either a connection ID or a token audience.
type OpenAPISecurityScheme struct {
	ConnectionID string `json:"connection_id,omitempty"`
	Audience     string `json:"audience,omitempty"`
}

// OpenAPIAnonymousAuth calls the API without credentials.
func OpenAPIAnonymousAuth() OpenAPIAuth {
	return OpenAPIAuth{Type: OpenAPIAuthAnonymous}
}

// OpenAPIConnectionAuth authenticates with the secrets of a project connection.
func OpenAPIConnectionAuth(connectionID string) OpenAPIAuth {
	return OpenAPIAuth{
		Type:           OpenAPIAuthConnection,
		SecurityScheme: &OpenAPISecurityScheme{ConnectionID: connectionID},
	}
}

// OpenAPIManagedIdentityAuth authenticates with the project's managed identity
// for audience.
func OpenAPIManagedIdentityAuth(audience string) OpenAPIAuth {
	return OpenAPIAuth{
		Type:           OpenAPIAuthManagedIdentity,
		SecurityScheme: &OpenAPISecurityScheme{Audience: audience},
	}
}

// LoadOpenAPISpec reads an OpenAPI document from path. YAML documents are
// converted to JSON.
func LoadOpenAPISpec(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi spec: %w", err)
	}
	spec, err := ParseOpenAPISpec(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// ParseOpenAPISpec validates an OpenAPI document given as JSON or YAML and
// returns it as JSON.
func ParseOpenAPISpec(data []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty openapi spec", ErrInvalidRequest)
	}
	if trimmed[0] != '{' {
		converted, err := yaml.YAMLToJSON(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: openapi spec is neither JSON nor YAML: %v", ErrInvalidRequest, err)
		}
		trimmed = converted
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: openapi spec: %v", ErrInvalidRequest, err)
	}
	_, isOpenAPI := doc["openapi"]
	_, isSwagger := doc["swagger"]
	if !isOpenAPI && !isSwagger {
		return nil, fmt.Errorf("%w: document has no openapi or swagger version key", ErrInvalidRequest)
	}
	return json.RawMessage(trimmed), nil
}
