package margin_test

import (
	"testing"

	"github.com/ebnarten/margin"
	"github.com/stretchr/testify/assert"
)

func TestMatrix_LongestPrefixWins(t *testing.T) {
	t.Parallel()
	m := margin.NewMatrix([]margin.CapabilityEntry{
		{Provider: margin.ProviderAnthropic, ModelPattern: "", Capabilities: margin.ModelCapabilities{MaxTemperature: 1.0, DefaultTemperature: 0.5}},
		{Provider: margin.ProviderAnthropic, ModelPattern: "claude", Capabilities: margin.ModelCapabilities{MaxTemperature: 1.0, DefaultTemperature: 0.6}},
		{Provider: margin.ProviderAnthropic, ModelPattern: "claude-sonnet-4", Capabilities: margin.ModelCapabilities{MaxTemperature: 1.0, DefaultTemperature: 0.7}},
	})

	caps := m.Lookup(margin.ProviderAnthropic, "claude-sonnet-4-20250514")
	assert.Equal(t, 0.7, caps.DefaultTemperature)

	caps = m.Lookup(margin.ProviderAnthropic, "claude-haiku-3")
	assert.Equal(t, 0.6, caps.DefaultTemperature)
}

func TestMatrix_ProviderDefaultApplies(t *testing.T) {
	t.Parallel()
	m := margin.NewMatrix([]margin.CapabilityEntry{
		{Provider: margin.ProviderGemini, ModelPattern: "", Capabilities: margin.ModelCapabilities{MaxTemperature: 2.0, DefaultTemperature: 0.4}},
		{Provider: margin.ProviderGemini, ModelPattern: "gemini-2.5", Capabilities: margin.ModelCapabilities{MaxTemperature: 2.0, DefaultTemperature: 0.9}},
	})

	caps := m.Lookup(margin.ProviderGemini, "gemini-experimental")
	assert.Equal(t, 0.4, caps.DefaultTemperature)
}

func TestMatrix_UnknownProviderFallsBack(t *testing.T) {
	t.Parallel()
	m := margin.NewMatrix(nil)

	caps := m.Lookup(margin.ProviderID("mystery"), "whatever-v9")
	assert.Equal(t, 2.0, caps.MaxTemperature)
	assert.Equal(t, 0.7, caps.DefaultTemperature)
	assert.Equal(t, margin.ReasoningNone, caps.ReasoningSupport)
	assert.Nil(t, caps.ReasoningDefault)
}

func TestDefaultMatrix_BuiltinData(t *testing.T) {
	t.Parallel()
	m := margin.DefaultMatrix()

	caps := m.Lookup(margin.ProviderAnthropic, "claude-sonnet-4-20250514")
	assert.Equal(t, 1.0, caps.MaxTemperature)
	assert.Equal(t, margin.ReasoningBudgetTokens, caps.ReasoningSupport)
	assert.NotNil(t, caps.ReasoningFixedTemperature)

	caps = m.Lookup(margin.ProviderOpenAICompat, "gpt-4o")
	assert.Equal(t, 2.0, caps.MaxTemperature)
	assert.Equal(t, 16, caps.MinTokenBudget)
	assert.Equal(t, margin.ReasoningNone, caps.ReasoningSupport)

	caps = m.Lookup(margin.ProviderOpenAICompat, "o3-mini")
	assert.Equal(t, margin.ReasoningEffortLevel, caps.ReasoningSupport)

	caps = m.Lookup(margin.ProviderLocalNDJSON, "deepseek-r1:14b")
	assert.Equal(t, margin.ReasoningDepthLevel, caps.ReasoningSupport)
}
