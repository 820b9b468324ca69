package gemini

import (
	"context"
	"fmt"

	"github.com/ebnarten/margin"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ margin.Provider = (*Client)(nil)

// Client implements [margin.Provider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID used when the request leaves it empty.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [margin.Stream] of normalized fragments.
func (c *Client) Stream(ctx context.Context, req margin.Request) (margin.Stream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}
	config := buildConfig(req)

	iter := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return newStream(ctx, iter), nil
}

func buildConfig(req margin.Request) *genai.GenerateContentConfig {
	maxTokens := req.Params.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
		},
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Params.Temperature != nil {
		temp := float32(*req.Params.Temperature)
		config.Temperature = &temp
	}

	if r := req.Params.Reasoning; r != nil && r.Kind == margin.ReasoningBudgetTokens {
		budget := int32(r.BudgetTokens)
		config.ThinkingConfig.ThinkingBudget = &budget
	}

	return config
}
