package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/anthropic"
	"github.com/ebnarten/margin/gemini"
	"github.com/ebnarten/margin/ollama"
	"github.com/ebnarten/margin/openaicompat"
)

// envKeys carries the API keys read from the environment. Env is only read
// in main(); everything below works on values.
type envKeys struct {
	Anthropic string
	OpenAI    string
	Gemini    string
}

// resolveProvider selects and constructs the provider. The flag wins; with
// no flag the provider is auto-detected from which API key is set.
func resolveProvider(ctx context.Context, providerFlag, apiKeyFlag, baseURL string, keys envKeys) (margin.ProviderID, margin.Provider, error) {
	name := providerFlag

	if name == "" {
		var detected []string
		if keys.Anthropic != "" {
			detected = append(detected, "anthropic")
		}
		if keys.OpenAI != "" {
			detected = append(detected, "openai")
		}
		if keys.Gemini != "" {
			detected = append(detected, "gemini")
		}
		switch len(detected) {
		case 1:
			name = detected[0]
		case 0:
			return "", nil, fmt.Errorf("no API key found: set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY, or use -provider local for a local server")
		default:
			return "", nil, fmt.Errorf("multiple API keys found (%v): use -provider to select", detected)
		}
	}

	key := apiKeyFlag

	switch name {
	case "anthropic":
		if key == "" {
			key = keys.Anthropic
		}
		if key == "" {
			return "", nil, fmt.Errorf("ANTHROPIC_API_KEY not set (use -api-key or the environment)")
		}
		var opts []anthropic.Option
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		return margin.ProviderAnthropic, anthropic.New(key, opts...), nil

	case "openai":
		if key == "" {
			key = keys.OpenAI
		}
		var opts []openaicompat.Option
		if baseURL != "" {
			opts = append(opts, openaicompat.WithBaseURL(baseURL))
		}
		if key == "" && baseURL == "" {
			return "", nil, fmt.Errorf("OPENAI_API_KEY not set (use -api-key, the environment, or -base-url for a keyless server)")
		}
		return margin.ProviderOpenAICompat, openaicompat.New(key, opts...), nil

	case "gemini":
		if key == "" {
			key = keys.Gemini
		}
		if key == "" {
			return "", nil, fmt.Errorf("GEMINI_API_KEY not set (use -api-key or the environment)")
		}
		if baseURL != "" {
			return "", nil, fmt.Errorf("-base-url is not supported for gemini")
		}
		client, err := gemini.New(ctx, key)
		if err != nil {
			return "", nil, err
		}
		return margin.ProviderGemini, client, nil

	case "local":
		var opts []ollama.Option
		if baseURL != "" {
			opts = append(opts, ollama.WithBaseURL(baseURL))
		}
		return margin.ProviderLocalNDJSON, ollama.New(opts...), nil

	default:
		return "", nil, fmt.Errorf("unknown provider %q: must be anthropic, openai, gemini, or local", name)
	}
}

// parseReasoning interprets the -reasoning flag. A number is a thinking
// token budget; low/medium/high select an effort or depth level depending on
// what the provider speaks.
func parseReasoning(providerID margin.ProviderID, value string) (*margin.ReasoningConfig, error) {
	if value == "" {
		return nil, nil
	}

	if n, err := strconv.Atoi(value); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("reasoning budget must be positive, got %d", n)
		}
		return &margin.ReasoningConfig{Kind: margin.ReasoningBudgetTokens, BudgetTokens: n}, nil
	}

	switch value {
	case margin.LevelLow, margin.LevelMedium, margin.LevelHigh:
	default:
		return nil, fmt.Errorf("invalid reasoning %q: use a token budget or low/medium/high", value)
	}

	switch providerID {
	case margin.ProviderOpenAICompat:
		return &margin.ReasoningConfig{Kind: margin.ReasoningEffortLevel, Effort: value}, nil
	case margin.ProviderLocalNDJSON:
		return &margin.ReasoningConfig{Kind: margin.ReasoningDepthLevel, Depth: value}, nil
	default:
		return nil, fmt.Errorf("provider %q expects a reasoning token budget, not a level", providerID)
	}
}
