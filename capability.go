package margin

import "strings"

// ModelCapabilities is the per-model fact sheet the applier corrects
// requests against. Read-only after construction.
type ModelCapabilities struct {
	MaxTemperature     float64
	DefaultTemperature float64

	// MinTokenBudget is the smallest max_tokens the provider accepts for
	// this model. 0 means no documented minimum.
	MinTokenBudget int

	ReasoningSupport ReasoningKind
	ReasoningDefault *ReasoningConfig

	// ReasoningFixedTemperature, when set, is the temperature the provider
	// mandates whenever extended reasoning is enabled, overriding any
	// caller preference.
	ReasoningFixedTemperature *float64
}

// CapabilityEntry registers capabilities for models whose name starts with
// ModelPattern. An empty pattern is the provider-level default.
type CapabilityEntry struct {
	Provider     ProviderID
	ModelPattern string
	Capabilities ModelCapabilities
}

// Matrix answers capability lookups. It is immutable after construction and
// safe for unsynchronized concurrent reads.
type Matrix struct {
	entries map[ProviderID][]CapabilityEntry
}

// NewMatrix builds a Matrix from explicit entries. Use DefaultMatrix for the
// built-in data; NewMatrix exists so tests can inject fixtures.
func NewMatrix(entries []CapabilityEntry) *Matrix {
	m := &Matrix{entries: make(map[ProviderID][]CapabilityEntry)}
	for _, e := range entries {
		m.entries[e.Provider] = append(m.entries[e.Provider], e)
	}
	return m
}

// fallbackCapabilities applies when the provider itself is unknown. An
// unknown model must still be usable with sane generic limits rather than
// blocking the caller.
var fallbackCapabilities = ModelCapabilities{
	MaxTemperature:     2.0,
	DefaultTemperature: 0.7,
}

// Lookup resolves capabilities by provider first, then by the longest
// matching model-name prefix, then the provider default, then the universal
// fallback. It never fails.
func (m *Matrix) Lookup(provider ProviderID, model string) ModelCapabilities {
	entries := m.entries[provider]
	best, bestLen, def := -1, -1, -1
	for i, e := range entries {
		if e.ModelPattern == "" {
			def = i
			continue
		}
		if strings.HasPrefix(model, e.ModelPattern) && len(e.ModelPattern) > bestLen {
			best, bestLen = i, len(e.ModelPattern)
		}
	}
	switch {
	case best >= 0:
		return entries[best].Capabilities
	case def >= 0:
		return entries[def].Capabilities
	default:
		return fallbackCapabilities
	}
}

// DefaultMatrix returns the built-in capability data for the supported
// backends.
func DefaultMatrix() *Matrix {
	fixed := 1.0
	budget := func(n int) *ReasoningConfig {
		return &ReasoningConfig{Kind: ReasoningBudgetTokens, BudgetTokens: n}
	}
	effort := func(level string) *ReasoningConfig {
		return &ReasoningConfig{Kind: ReasoningEffortLevel, Effort: level}
	}
	depth := func(level string) *ReasoningConfig {
		return &ReasoningConfig{Kind: ReasoningDepthLevel, Depth: level}
	}

	return NewMatrix([]CapabilityEntry{
		// Anthropic caps temperature at 1.0 across the family. Models with
		// extended thinking additionally force temperature to 1.0 while
		// thinking is enabled and need room for the thinking budget.
		{Provider: ProviderAnthropic, ModelPattern: "", Capabilities: ModelCapabilities{
			MaxTemperature: 1.0, DefaultTemperature: 0.7,
		}},
		{Provider: ProviderAnthropic, ModelPattern: "claude-3-7-sonnet", Capabilities: ModelCapabilities{
			MaxTemperature: 1.0, DefaultTemperature: 0.7, MinTokenBudget: 1024,
			ReasoningSupport: ReasoningBudgetTokens, ReasoningDefault: budget(2048),
			ReasoningFixedTemperature: &fixed,
		}},
		{Provider: ProviderAnthropic, ModelPattern: "claude-sonnet-4", Capabilities: ModelCapabilities{
			MaxTemperature: 1.0, DefaultTemperature: 0.7, MinTokenBudget: 1024,
			ReasoningSupport: ReasoningBudgetTokens, ReasoningDefault: budget(2048),
			ReasoningFixedTemperature: &fixed,
		}},
		{Provider: ProviderAnthropic, ModelPattern: "claude-opus-4", Capabilities: ModelCapabilities{
			MaxTemperature: 1.0, DefaultTemperature: 0.7, MinTokenBudget: 1024,
			ReasoningSupport: ReasoningBudgetTokens, ReasoningDefault: budget(2048),
			ReasoningFixedTemperature: &fixed,
		}},

		// OpenAI-compatible endpoints historically reject max_tokens below 16.
		{Provider: ProviderOpenAICompat, ModelPattern: "", Capabilities: ModelCapabilities{
			MaxTemperature: 2.0, DefaultTemperature: 1.0, MinTokenBudget: 16,
		}},
		{Provider: ProviderOpenAICompat, ModelPattern: "o1", Capabilities: ModelCapabilities{
			MaxTemperature: 1.0, DefaultTemperature: 1.0, MinTokenBudget: 16,
			ReasoningSupport: ReasoningEffortLevel, ReasoningDefault: effort(LevelMedium),
		}},
		{Provider: ProviderOpenAICompat, ModelPattern: "o3", Capabilities: ModelCapabilities{
			MaxTemperature: 1.0, DefaultTemperature: 1.0, MinTokenBudget: 16,
			ReasoningSupport: ReasoningEffortLevel, ReasoningDefault: effort(LevelMedium),
		}},
		{Provider: ProviderOpenAICompat, ModelPattern: "gpt-5", Capabilities: ModelCapabilities{
			MaxTemperature: 2.0, DefaultTemperature: 1.0, MinTokenBudget: 16,
			ReasoningSupport: ReasoningEffortLevel, ReasoningDefault: effort(LevelMedium),
		}},

		{Provider: ProviderGemini, ModelPattern: "", Capabilities: ModelCapabilities{
			MaxTemperature: 2.0, DefaultTemperature: 0.7,
		}},
		{Provider: ProviderGemini, ModelPattern: "gemini-2.5", Capabilities: ModelCapabilities{
			MaxTemperature: 2.0, DefaultTemperature: 0.7,
			ReasoningSupport: ReasoningBudgetTokens, ReasoningDefault: budget(8192),
		}},

		{Provider: ProviderLocalNDJSON, ModelPattern: "", Capabilities: ModelCapabilities{
			MaxTemperature: 2.0, DefaultTemperature: 0.8,
		}},
		{Provider: ProviderLocalNDJSON, ModelPattern: "deepseek-r1", Capabilities: ModelCapabilities{
			MaxTemperature: 2.0, DefaultTemperature: 0.8,
			ReasoningSupport: ReasoningDepthLevel, ReasoningDefault: depth(LevelMedium),
		}},
		{Provider: ProviderLocalNDJSON, ModelPattern: "qwen3", Capabilities: ModelCapabilities{
			MaxTemperature: 2.0, DefaultTemperature: 0.8,
			ReasoningSupport: ReasoningDepthLevel, ReasoningDefault: depth(LevelMedium),
		}},
	})
}
