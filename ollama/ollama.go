// Package ollama implements [margin.Provider] for local Ollama servers,
// which stream newline-delimited JSON with a done flag instead of SSE.
package ollama

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "qwen3"

	chatPath = "/api/chat"
)

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"`
	Think    string       `json:"think,omitempty"`
	Options  *apiOptions  `json:"options,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
}
