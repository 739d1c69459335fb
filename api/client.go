// Package api is the HTTP transport for the thread execution service.
//
// It reuses the Anthropic SDK's generic request methods so auth headers,
// base URL handling and the HTTP client are configured the same way as any
// other SDK client. Retries are disabled: every call is attempted exactly once
// and its status code is handed back to the caller unchanged.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "http://localhost:8080"

// Response is the status code and payload of a single call. A non-200 Status
// is a failure for that call; Client never hides it behind an error.
type Response struct {
	Status int
	Data   json.RawMessage
}

// OK reports whether the call succeeded.
func (r Response) OK() bool { return r.Status == http.StatusOK }

type Client struct {
	sdk anthropic.Client
}

// NewClient returns a client for baseURL. An empty apiKey sends no
// Authorization header. Requests go through an otelhttp transport so each call
// becomes a client span of the caller's trace. Extra SDK options (HTTP client,
// headers) are applied last and may override the defaults.
func NewClient(baseURL, apiKey string, opts ...option.RequestOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
		// The SDK seeds credentials from ANTHROPIC_* variables; they must
		// never reach this service.
		option.WithHeaderDel("X-Api-Key"),
		option.WithHeaderDel("Authorization"),
	}
	if apiKey != "" {
		base = append(base, option.WithHeader("Authorization", "Bearer "+apiKey))
	}
	return &Client{sdk: anthropic.NewClient(append(base, opts...)...)}
}

// Get issues a GET request against path.
func (c *Client) Get(ctx context.Context, path string) (Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request against path with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("encoding request body for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, json.RawMessage(raw))
}

func (c *Client) do(ctx context.Context, method, path string, body json.RawMessage) (Response, error) {
	path = strings.TrimLeft(path, "/")

	var (
		httpResp *http.Response
		err      error
	)
	switch method {
	case http.MethodGet:
		err = c.sdk.Get(ctx, path, nil, &httpResp)
	default:
		err = c.sdk.Post(ctx, path, body, &httpResp)
	}

	// The SDK turns every non-2xx answer into *anthropic.Error. Those are
	// still valid responses from the service's point of view.
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return Response{Status: apiErr.StatusCode, Data: rawOrNull(apiErr.RawJSON())}, nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}
	return Response{Status: httpResp.StatusCode, Data: rawOrNull(string(data))}, nil
}

func rawOrNull(s string) json.RawMessage {
	if strings.TrimSpace(s) == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}
