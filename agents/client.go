// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIVersion is the agent service API version sent when none is configured.
	DefaultAPIVersion = "v1"

	// DefaultScope is the token scope for the Azure AI Foundry data plane.
	DefaultScope = "https://ai.azure.com/.default"

	moduleName    = "agents"
	moduleVersion = "v0.1.0"
	tracerName    = "github.com/azure-ai-foundry/foundry-samples/go/agents"
)

// ClientOptions configures a [Client]. The embedded azcore options control
// retries, transport, logging and telemetry of the underlying pipeline.
type ClientOptions struct {
	azcore.ClientOptions

	// APIVersion is sent as the api-version query parameter. Default: v1.
	APIVersion string

	// RequestsPerSecond throttles outgoing requests on the client side.
	// Zero disables throttling.
	RequestsPerSecond float64

	// InsecureAllowCredentialWithHTTP permits bearer tokens over plain HTTP.
	// Only meant for local emulators.
	InsecureAllowCredentialWithHTTP bool
}

// Client talks to the agent service of one Azure AI Foundry project.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	apiVersion string
	pl         runtime.Pipeline
	tracer     trace.Tracer
}

// NewClient creates a [Client] for a project endpoint such as
// https://<resource>.services.ai.azure.com/api/projects/<project>.
//
//	cred, _ := azidentity.NewDefaultAzureCredential(nil)
//	client, err := agents.NewClient(os.Getenv("PROJECT_ENDPOINT"), cred, nil)
func NewClient(endpoint string, cred azcore.TokenCredential, opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	u, err := url.Parse(endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q must be an absolute URL", ErrInvalidRequest, endpoint)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: credential is required", ErrInvalidRequest)
	}

	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	plOpts := runtime.PipelineOptions{
		PerRetry: []policy.Policy{
			runtime.NewBearerTokenPolicy(cred, []string{DefaultScope}, &policy.BearerTokenOptions{
				InsecureAllowCredentialWithHTTP: opts.InsecureAllowCredentialWithHTTP,
			}),
		},
	}
	if opts.RequestsPerSecond > 0 {
		plOpts.PerCall = append(plOpts.PerCall, newRateLimitPolicy(opts.RequestsPerSecond))
	}

	clientOpts := opts.ClientOptions
	return &Client{
		endpoint:   endpoint,
		apiVersion: apiVersion,
		pl:         runtime.NewPipeline(moduleName, moduleVersion, plOpts, &clientOpts),
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Endpoint returns the project endpoint the client was created with.
func (c *Client) Endpoint() string { return c.endpoint }

// rateLimitPolicy blocks each request until the limiter admits it.
type rateLimitPolicy struct {
	lim *rate.Limiter
}

var _ policy.Policy = (*rateLimitPolicy)(nil)

func newRateLimitPolicy(rps float64) *rateLimitPolicy {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &rateLimitPolicy{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (p *rateLimitPolicy) Do(req *policy.Request) (*http.Response, error) {
	if err := p.lim.Wait(req.Raw().Context()); err != nil {
		return nil, err
	}
	return req.Next()
}

// newRequest builds a request for path relative to the project endpoint.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values) (*policy.Request, error) {
	req, err := runtime.NewRequest(ctx, method, runtime.JoinPaths(c.endpoint, path))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.Raw().URL.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api-version", c.apiVersion)
	req.Raw().URL.RawQuery = q.Encode()
	req.Raw().Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends body (if non-nil) as JSON and decodes the response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query)
	if err != nil {
		return err
	}
	if body != nil {
		if err := runtime.MarshalAsJSON(req, body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	return c.send(req, out)
}

func (c *Client) send(req *policy.Request, out any) error {
	resp, err := c.pl.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if !runtime.HasStatusCode(resp, http.StatusOK, http.StatusCreated) {
		return parseErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := runtime.UnmarshalAsJSON(resp, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// parseErrorResponse reads an error response body and returns a typed error.
func parseErrorResponse(resp *http.Response) error {
	body, _ := runtime.Payload(resp)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	svcErr := &ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       apiErr.Error.Code,
	}

	switch {
	case apiErr.Error.Code == "content_filter":
		svcErr.Err = ErrContentFilter
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		svcErr.Err = ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		svcErr.Err = ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		svcErr.Err = ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		svcErr.Err = ErrInvalidRequest
	default:
		svcErr.Err = ErrService
	}

	return svcErr
}

// listQuery encodes the common pagination parameters.
func listQuery(opts *ListOptions) url.Values {
	q := url.Values{}
	if opts == nil {
		return q
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprint(opts.Limit))
	}
	if opts.Order != "" {
		q.Set("order", string(opts.Order))
	}
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if opts.Before != "" {
		q.Set("before", opts.Before)
	}
	return q
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
