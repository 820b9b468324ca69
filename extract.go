package margin

// Extract classifies one decoded stream event into a normalized Fragment.
//
// The four supported backends stream structurally different JSON, and the
// shapes are not mutually exclusive at the type level, so the event is tried
// against each known shape in a fixed priority order and the first match
// wins. An event matching no shape is a heartbeat or metadata event and
// yields an empty fragment, never an error. Missing nested fields resolve to
// "no fragment this event"; only a nil top-level event fails, because it
// indicates a transport bug upstream of parsing.
func Extract(event map[string]any) (Fragment, error) {
	if event == nil {
		return Fragment{}, ErrMalformedEvent
	}
	for _, match := range shapes {
		if frag, ok := match(event); ok {
			return frag, nil
		}
	}
	return Fragment{}, nil
}

// shapeMatcher probes an event for one provider shape. The boolean reports
// whether the shape matched; a match with an empty fragment is valid.
type shapeMatcher func(event map[string]any) (Fragment, bool)

var shapes = []shapeMatcher{
	matchChoiceArray,
	matchTypedDelta,
	matchContentBlock,
	matchCandidate,
	matchFlatMessage,
}

// matchChoiceArray handles choices[0].delta events. Termination lives in
// choices[0].finish_reason, which counts only as a non-empty string:
// payloads have been observed to encode "no reason yet" as null, false,
// or 0 depending on the producing JSON encoder, and none of those may be
// mistaken for a stop marker.
func matchChoiceArray(event map[string]any) (Fragment, bool) {
	choices, ok := event["choices"].([]any)
	if !ok || len(choices) == 0 {
		return Fragment{}, false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return Fragment{}, false
	}
	if reason, ok := choice["finish_reason"].(string); ok && reason != "" {
		return Fragment{Terminated: true}, true
	}
	var frag Fragment
	if delta, ok := choice["delta"].(map[string]any); ok {
		if text, ok := delta["content"].(string); ok {
			frag.Text = &text
		}
		if r, ok := delta["reasoning_content"].(string); ok {
			frag.Reasoning = &r
		} else if r, ok := delta["reasoning"].(string); ok {
			frag.Reasoning = &r
		}
	}
	// A choice with neither content nor reasoning is still a valid event.
	return frag, true
}

// matchTypedDelta handles delta.text / delta.thinking increments, the
// incremental variant of the content-block provider.
func matchTypedDelta(event map[string]any) (Fragment, bool) {
	delta, ok := event["delta"].(map[string]any)
	if !ok {
		return Fragment{}, false
	}
	var frag Fragment
	if text, ok := delta["text"].(string); ok {
		frag.Text = &text
	}
	if thinking, ok := delta["thinking"].(string); ok {
		frag.Reasoning = &thinking
	}
	if frag.Empty() {
		return Fragment{}, false
	}
	return frag, true
}

// matchContentBlock handles content[0].text, the complete-message variant of
// the typed-delta provider. The same backend emits both depending on event
// type, so both must be recognized.
func matchContentBlock(event map[string]any) (Fragment, bool) {
	content, ok := event["content"].([]any)
	if !ok || len(content) == 0 {
		return Fragment{}, false
	}
	first, ok := content[0].(map[string]any)
	if !ok {
		return Fragment{}, false
	}
	text, ok := first["text"].(string)
	if !ok {
		return Fragment{}, false
	}
	return Fragment{Text: &text}, true
}

// matchCandidate handles candidates[0].content.parts[0].text. Absence of
// content or parts at any level is not an error, just no fragment.
func matchCandidate(event map[string]any) (Fragment, bool) {
	candidates, ok := event["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return Fragment{}, false
	}
	first, ok := candidates[0].(map[string]any)
	if !ok {
		return Fragment{}, false
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return Fragment{}, false
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return Fragment{}, false
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return Fragment{}, false
	}
	text, ok := part["text"].(string)
	if !ok {
		return Fragment{}, false
	}
	// Parts flagged as thought carry reasoning, not answer text.
	if thought, ok := part["thought"].(bool); ok && thought {
		return Fragment{Reasoning: &text}, true
	}
	return Fragment{Text: &text}, true
}

// matchFlatMessage handles message.content with a sibling done flag. An
// empty content string is a legitimate value distinct from absence; checking
// the done flag itself is the transport's job, not the normalizer's.
func matchFlatMessage(event map[string]any) (Fragment, bool) {
	message, ok := event["message"].(map[string]any)
	if !ok {
		return Fragment{}, false
	}
	var frag Fragment
	if text, ok := message["content"].(string); ok {
		frag.Text = &text
	}
	if thinking, ok := message["thinking"].(string); ok {
		frag.Reasoning = &thinking
	}
	if frag.Text == nil && frag.Reasoning == nil {
		return Fragment{}, false
	}
	return frag, true
}
