package margin

import (
	"regexp"
	"strconv"
	"strings"
)

// ConstraintViolation is a sealed interface representing one recognized
// parameter rejection parsed from a provider's error text. A nil
// ConstraintViolation means the failure is not a constraint violation and
// must be surfaced as a hard error rather than retried.
// The unexported marker method prevents external implementations.
type ConstraintViolation interface {
	constraintViolation()
}

// TemperatureViolation reports a rejected temperature. Required is the
// value the provider demanded, when one could be extracted.
type TemperatureViolation struct {
	Required *float64
}

func (TemperatureViolation) constraintViolation() {}

// MaxTokensViolation reports a rejected token budget. Minimum is the
// smallest accepted value, when one could be extracted.
type MaxTokensViolation struct {
	Minimum *int
}

func (MaxTokensViolation) constraintViolation() {}

// MultipleViolations reports a compound message naming more than one
// constraint. Compound messages are unreliable to parse precisely, so no
// values are extracted.
type MultipleViolations struct{}

func (MultipleViolations) constraintViolation() {}

// Interface compliance checks.
var (
	_ ConstraintViolation = TemperatureViolation{}
	_ ConstraintViolation = MaxTokensViolation{}
	_ ConstraintViolation = MultipleViolations{}
)

var (
	decimalRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerRe = regexp.MustCompile(`\d+`)
)

// ParseViolation classifies a failed call's error text. Heuristics run
// against the lower-cased message, first match wins. A nil return means the
// message names no constraint the planner understands (e.g. an
// authentication failure).
func ParseViolation(errText string) ConstraintViolation {
	msg := strings.ToLower(errText)

	mentionsTemperature := strings.Contains(msg, "temperature")
	mentionsTokens := strings.Contains(msg, "max_tokens") ||
		strings.Contains(msg, "max tokens") ||
		strings.Contains(msg, "tokens")
	compound := strings.Contains(msg, " and ") || strings.Contains(msg, "also requires")

	switch {
	case mentionsTemperature && mentionsTokens && compound:
		return MultipleViolations{}
	case mentionsTemperature:
		v := TemperatureViolation{}
		// First decimal number after the keyword; absent is fine, the
		// caller substitutes a provider default.
		tail := msg[strings.Index(msg, "temperature"):]
		if m := decimalRe.FindString(tail); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				v.Required = &f
			}
		}
		return v
	case mentionsTokens:
		v := MaxTokensViolation{}
		if m := integerRe.FindString(msg); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				v.Minimum = &n
			}
		}
		return v
	default:
		return nil
	}
}

// Conservative known-good values for retries that cannot be precisely
// targeted.
const (
	retryFallbackTemperature = 1.0
	retryFallbackMaxTokens   = 256
)

// BuildRetry returns a new parameter set correcting the recognized
// violation. The input is never mutated. Callers must not pass a nil
// violation; a nil means "abort", not "retry".
func BuildRetry(p Params, v ConstraintViolation) Params {
	retry := p.clone()
	switch viol := v.(type) {
	case TemperatureViolation:
		t := retryFallbackTemperature
		if viol.Required != nil {
			t = *viol.Required
		}
		retry.Temperature = &t
	case MaxTokensViolation:
		n := retryFallbackMaxTokens
		if viol.Minimum != nil {
			n = *viol.Minimum
		}
		retry.MaxTokens = n
	case MultipleViolations:
		t := retryFallbackTemperature
		retry.Temperature = &t
		retry.MaxTokens = retryFallbackMaxTokens
	}
	return retry
}
