package margin

// Adjustment records one change the Applier made. It exists for
// observability only; nothing acts on it beyond logging.
type Adjustment struct {
	Field  string
	From   any
	To     any
	Reason string
}

// Stable Adjustment reasons.
const (
	ReasonProviderMaximum     = "provider maximum"
	ReasonReasoningFixedTemp  = "extended reasoning requires fixed temperature"
	ReasonMinTokenBudget      = "below provider minimum token budget"
	ReasonReasoningUnsupported = "reasoning not supported by model"
)

// Applier rewrites outgoing parameters so they are valid for the target
// provider and model before the request is ever sent.
type Applier struct {
	matrix *Matrix
}

// NewApplier creates an Applier over the given capability matrix.
func NewApplier(matrix *Matrix) *Applier {
	return &Applier{matrix: matrix}
}

// Apply returns a corrected copy of p plus a record of every change made.
// It always succeeds and always returns something usable: correctness
// failures are provider-side, not caller-side. The input is never mutated,
// and applying the result again produces no further adjustments.
func (a *Applier) Apply(provider ProviderID, model string, p Params) (Params, []Adjustment) {
	caps := a.matrix.Lookup(provider, model)
	out := p.clone()
	var adjustments []Adjustment

	// Drop unsupported reasoning before the temperature rules so the fixed
	// temperature override only fires for reasoning that will be sent.
	if out.Reasoning != nil && caps.ReasoningSupport == ReasoningNone {
		adjustments = append(adjustments, Adjustment{
			Field:  "reasoning",
			From:   out.Reasoning.Kind.String(),
			To:     nil,
			Reason: ReasonReasoningUnsupported,
		})
		out.Reasoning = nil
	}

	switch {
	case out.Reasoning != nil && caps.ReasoningFixedTemperature != nil:
		// Takes precedence over the plain maximum clamp.
		fixed := *caps.ReasoningFixedTemperature
		if out.Temperature == nil || *out.Temperature != fixed {
			adjustments = append(adjustments, Adjustment{
				Field:  "temperature",
				From:   temperatureValue(out.Temperature),
				To:     fixed,
				Reason: ReasonReasoningFixedTemp,
			})
			out.Temperature = &fixed
		}
	case out.Temperature != nil && *out.Temperature > caps.MaxTemperature:
		clamped := caps.MaxTemperature
		adjustments = append(adjustments, Adjustment{
			Field:  "temperature",
			From:   *out.Temperature,
			To:     clamped,
			Reason: ReasonProviderMaximum,
		})
		out.Temperature = &clamped
	}

	if out.MaxTokens != 0 && out.MaxTokens < caps.MinTokenBudget {
		adjustments = append(adjustments, Adjustment{
			Field:  "max_tokens",
			From:   out.MaxTokens,
			To:     caps.MinTokenBudget,
			Reason: ReasonMinTokenBudget,
		})
		out.MaxTokens = caps.MinTokenBudget
	}

	return out, adjustments
}

// temperatureValue unwraps an optional temperature for Adjustment records.
func temperatureValue(t *float64) any {
	if t == nil {
		return nil
	}
	return *t
}
