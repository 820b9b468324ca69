package anthropic

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

// Client implements [margin.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Anthropic [Client] with the given API key and options.
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

// Stream sends a streaming request to the Messages API and returns a
// [margin.Stream] of normalized fragments.
func (c *Client) Stream(ctx context.Context, req margin.Request) (margin.Stream, error) {
	body, err := json.Marshal(buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
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
	maxTokens := req.Params.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	body := apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      req.SystemPrompt,
		Messages:    []apiMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Params.Temperature,
	}

	if r := req.Params.Reasoning; r != nil && r.Kind == margin.ReasoningBudgetTokens {
		body.Thinking = &apiThinking{Type: "enabled", BudgetTokens: r.BudgetTokens}
	}

	return body
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return &margin.APIError{Provider: margin.ProviderAnthropic, Status: resp.StatusCode, Message: string(body)}
	}
	return &margin.APIError{Provider: margin.ProviderAnthropic, Status: resp.StatusCode, Message: apiErr.Error.Message}
}
