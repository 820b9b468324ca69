package margin

// ReasoningKind identifies how a provider expresses "think harder".
// Backends disagree completely: a token budget integer, a named effort
// tier, or a named depth tier.
type ReasoningKind int

const (
	ReasoningNone         ReasoningKind = iota
	ReasoningBudgetTokens               // integer token budget (Anthropic thinking, Gemini thinkingBudget)
	ReasoningEffortLevel                // named tier (OpenAI reasoning_effort)
	ReasoningDepthLevel                 // named tier (local runtimes' think level)
)

func (k ReasoningKind) String() string {
	switch k {
	case ReasoningBudgetTokens:
		return "budget_tokens"
	case ReasoningEffortLevel:
		return "effort_level"
	case ReasoningDepthLevel:
		return "depth_level"
	default:
		return "none"
	}
}

// Named tiers shared by effort and depth style providers.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// ReasoningConfig carries an extended-reasoning request. Exactly one of the
// value fields is meaningful, selected by Kind.
type ReasoningConfig struct {
	Kind         ReasoningKind
	BudgetTokens int    // ReasoningBudgetTokens
	Effort       string // ReasoningEffortLevel
	Depth        string // ReasoningDepthLevel
}
