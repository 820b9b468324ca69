package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ebnarten/margin"
)

// Interface compliance check.
var _ margin.Provider = (*Client)(nil)

// Client implements [margin.Provider] for OpenAI-compatible chat completion
// APIs.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest and
// for pointing at self-hosted servers.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new [Client]. The API key may be empty for servers that do
// not require authentication.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends a streaming chat completion request and returns a
// [margin.Stream] of normalized fragments.
func (c *Client) Stream(ctx context.Context, req margin.Request) (margin.Stream, error) {
	body, err := json.Marshal(buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("openaicompat: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openaicompat: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openaicompat: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body), nil
}

func buildRequestBody(req margin.Request) apiRequest {
	model := req.Model
	if model == "" {
		model = defaultModel
	}

	var messages []apiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, apiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, apiMessage{Role: "user", Content: req.Prompt})

	body := apiRequest{
		Model:       model,
		Messages:    messages,
		Stream:      true,
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
	}

	if r := req.Params.Reasoning; r != nil && r.Kind == margin.ReasoningEffortLevel {
		body.ReasoningEffort = r.Effort
	}

	return body
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openaicompat: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return &margin.APIError{Provider: margin.ProviderOpenAICompat, Status: resp.StatusCode, Message: string(body)}
	}
	return &margin.APIError{Provider: margin.ProviderOpenAICompat, Status: resp.StatusCode, Message: apiErr.Error.Message}
}
