// Package margin is the provider layer of a reading-assistant: it talks to
// multiple, incompatible LLM backends over streaming connections and keeps
// outgoing requests inside each backend's parameter constraints.
//
// The root package holds the provider-agnostic core: the capability matrix,
// the constraint applier, the stream event normalizer, and the
// constraint-violation retry planner. All of them are pure functions of
// their inputs. Transport lives in the per-provider packages (anthropic,
// openaicompat, gemini, ollama).
package margin

import "context"

// ProviderID identifies one of the supported backends.
type ProviderID string

const (
	ProviderAnthropic    ProviderID = "anthropic"
	ProviderOpenAICompat ProviderID = "openai-compatible"
	ProviderGemini       ProviderID = "gemini"
	ProviderLocalNDJSON  ProviderID = "local-ndjson"
)

// Provider is a strategy pattern interface for LLM providers.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
