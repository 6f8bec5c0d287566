// Copyright (c) Microsoft. All rights reserved.

package samples

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

//go:embed assets
var assets embed.FS

func asset(name string) ([]byte, error) {
	b, err := assets.ReadFile("assets/" + name)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return b, nil
}

func assetReader(name string) (io.Reader, error) {
	b, err := asset(name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// openAPISpec loads an embedded JSON or YAML OpenAPI document.
func openAPISpec(name string) (json.RawMessage, error) {
	b, err := asset(name)
	if err != nil {
		return nil, err
	}
	return agents.ParseOpenAPISpec(b)
}
