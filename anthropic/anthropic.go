// Package anthropic implements [margin.Provider] for the Anthropic Messages
// API.
//
// It connects via SSE and feeds each decoded event through the shared
// normalizer. Anthropic is the typed-delta backend: increments arrive as
// delta.text / delta.thinking events, complete messages as a content array,
// and termination as a dedicated message_stop event.
package anthropic

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// apiRequest is the JSON body sent to the Messages API.
type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Stream      bool         `json:"stream"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	Thinking    *apiThinking `json:"thinking,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiThinking enables extended thinking with a token budget.
type apiThinking struct {
	Type         string `json:"type"` // always "enabled"
	BudgetTokens int    `json:"budget_tokens"`
}

// apiErrorResponse is the JSON body returned on non-200 responses and in
// SSE error events.
type apiErrorResponse struct {
	Type  string         `json:"type"`
	Error apiErrorDetail `json:"error"`
}

type apiErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
