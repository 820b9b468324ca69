// Package openaicompat implements streaming against OpenAI-compatible chat
// completion endpoints. Besides api.openai.com it works with the many local
// and hosted servers that speak the same wire format.
package openaicompat

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"

	completionsPath = "/chat/completions"

	// doneSentinel is the final data payload on a completed stream.
	doneSentinel = "[DONE]"
)

type apiRequest struct {
	Model           string       `json:"model"`
	Messages        []apiMessage `json:"messages"`
	Stream          bool         `json:"stream"`
	Temperature     *float64     `json:"temperature,omitempty"`
	MaxTokens       int          `json:"max_tokens,omitempty"`
	ReasoningEffort string       `json:"reasoning_effort,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiErrorResponse struct {
	Error apiErrorDetail `json:"error"`
}

type apiErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
