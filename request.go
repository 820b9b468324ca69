package margin

import "fmt"

// Request carries model selection, prompt text, and generation parameters.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	Prompt       string
	Params       Params
}

// Params is the mutable value object a caller builds per outgoing call.
// The Applier returns a corrected copy and never mutates the original.
type Params struct {
	Temperature *float64 // nil = provider default
	MaxTokens   int      // 0 = provider default
	Reasoning   *ReasoningConfig
}

// clone returns a copy with fresh allocations for all pointer fields, so a
// corrected copy can be modified without touching the caller's value.
func (p Params) clone() Params {
	out := p
	if p.Temperature != nil {
		t := *p.Temperature
		out.Temperature = &t
	}
	if p.Reasoning != nil {
		r := *p.Reasoning
		out.Reasoning = &r
	}
	return out
}

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.Params.Temperature != nil {
		if *r.Params.Temperature < 0 || *r.Params.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Params.Temperature, ErrValidation)
		}
	}
	if r.Params.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.Params.MaxTokens, ErrValidation)
	}
	if r.Params.Reasoning != nil && r.Params.Reasoning.Kind == ReasoningBudgetTokens && r.Params.Reasoning.BudgetTokens < 0 {
		return fmt.Errorf("reasoning budget must be non-negative, got %d: %w", r.Params.Reasoning.BudgetTokens, ErrValidation)
	}
	return nil
}
