// Copyright (c) Microsoft. All rights reserved.

package inference

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	openai "github.com/sashabaranov/go-openai"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

// Scope is the token scope for Azure OpenAI and Foundry model inference.
const Scope = "https://cognitiveservices.azure.com/.default"

// tokenTransport sets a fresh bearer token on every request.
type tokenTransport struct {
	cred azcore.TokenCredential
	base http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	slog.DebugContext(ctx, "acquiring Azure AD token for Cognitive Services")
	token, err := t.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		return nil, fmt.Errorf("get azure token: %w", err)
	}
	r := req.Clone(ctx)
	r.Header.Del(openai.AzureAPIKeyHeader)
	r.Header.Set("Authorization", "Bearer "+token.Token)
	return t.base.RoundTrip(r)
}

// withCredential returns a copy of hc whose transport authenticates with cred.
func withCredential(hc *http.Client, cred azcore.TokenCredential) *http.Client {
	out := &http.Client{}
	if hc != nil {
		*out = *hc
	}
	base := out.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	out.Transport = &tokenTransport{cred: cred, base: base}
	return out
}

// mapError converts go-openai errors into the agents error hierarchy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		return &agents.ServiceError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Code:       code,
			Err:        sentinel(apiErr.HTTPStatusCode, code),
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := string(reqErr.Body)
		if msg == "" {
			msg = http.StatusText(reqErr.HTTPStatusCode)
		}
		return &agents.ServiceError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
			Err:        sentinel(reqErr.HTTPStatusCode, ""),
		}
	}
	return err
}

func sentinel(status int, code string) error {
	switch {
	case code == "content_filter":
		return agents.ErrContentFilter
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return agents.ErrAuth
	case status == http.StatusNotFound:
		return agents.ErrNotFound
	case status == http.StatusTooManyRequests:
		return agents.ErrRateLimited
	case status == http.StatusBadRequest:
		return agents.ErrInvalidRequest
	default:
		return agents.ErrService
	}
}
