package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/ebnarten/margin"
	"google.golang.org/genai"
)

// stream implements [margin.Stream] by wrapping the genai SDK's streaming
// iterator. Each chunk is marshaled back to its wire JSON and handed to the
// shared normalizer. A chunk carrying several parts is split into one event
// per part so that text and thought parts become separate fragments.
type stream struct {
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	ctx     context.Context
	pending []map[string]any
	state   margin.StreamState
	resp    margin.Response
	err     error
}

// Interface compliance check.
var _ margin.Stream = (*stream)(nil)

func newStream(ctx context.Context, iterFn iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(iterFn)
	return &stream{
		pull:  next,
		stop:  stop,
		ctx:   ctx,
		state: margin.StreamStateNew,
	}
}

// NewStreamFromIter wraps a genai-style streaming iterator directly.
// Exported for testing.
func NewStreamFromIter(ctx context.Context, iterFn iter.Seq2[*genai.GenerateContentResponse, error]) margin.Stream {
	return newStream(ctx, iterFn)
}

// Next pulls chunks until a fragment with payload arrives or the iterator is
// exhausted. Returns io.EOF on normal completion.
func (s *stream) Next() (margin.Fragment, error) {
	switch s.state {
	case margin.StreamStateComplete:
		return margin.Fragment{}, io.EOF
	case margin.StreamStateError:
		return margin.Fragment{}, s.err
	case margin.StreamStateClosed:
		return margin.Fragment{}, fmt.Errorf("gemini: %w", margin.ErrStreamClosed)
	}

	for {
		event, ok := s.nextEvent()
		if !ok {
			if s.err != nil {
				return margin.Fragment{}, s.err
			}
			s.state = margin.StreamStateComplete
			return margin.Fragment{}, io.EOF
		}

		frag, err := margin.Extract(event)
		if err != nil {
			s.terminate(fmt.Errorf("gemini: %w", err))
			return margin.Fragment{}, s.err
		}
		if frag.Empty() {
			continue
		}

		s.accumulate(frag)
		return frag, nil
	}
}

// nextEvent returns the next per-part event, pulling and splitting a fresh
// chunk when the pending queue is empty. A false return with s.err unset
// means the iterator completed normally.
func (s *stream) nextEvent() (map[string]any, bool) {
	for len(s.pending) == 0 {
		chunk, err, ok := s.pull()
		if !ok {
			return nil, false
		}
		s.state = margin.StreamStateStreaming
		if err != nil {
			s.terminate(err)
			return nil, false
		}

		event, err := chunkToEvent(chunk)
		if err != nil {
			s.terminate(fmt.Errorf("gemini: %w", err))
			return nil, false
		}
		s.captureStopReason(event)
		s.pending = splitParts(event)
	}

	event := s.pending[0]
	s.pending = s.pending[1:]
	return event, true
}

// State returns the current stream state.
func (s *stream) State() margin.StreamState {
	return s.state
}

// Response returns the response accumulated so far.
func (s *stream) Response() (margin.Response, error) {
	if s.state == margin.StreamStateNew {
		return margin.Response{}, fmt.Errorf("gemini: no data received yet")
	}
	return s.resp, nil
}

// Close stops the underlying iterator.
func (s *stream) Close() error {
	if s.state != margin.StreamStateComplete && s.state != margin.StreamStateError {
		s.state = margin.StreamStateClosed
	}
	s.stop()
	return nil
}

func (s *stream) accumulate(frag margin.Fragment) {
	if frag.Text != nil {
		s.resp.Text += *frag.Text
	}
	if frag.Reasoning != nil {
		s.resp.Reasoning += *frag.Reasoning
	}
}

func (s *stream) captureStopReason(event map[string]any) {
	candidates, ok := event["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return
	}
	first, ok := candidates[0].(map[string]any)
	if !ok {
		return
	}
	if reason, ok := first["finishReason"].(string); ok && reason != "" {
		s.resp.StopReason = reason
	}
}

// terminate records a terminal error and sets the appropriate state.
func (s *stream) terminate(err error) {
	s.state = margin.StreamStateError
	if s.ctx.Err() != nil {
		s.err = s.ctx.Err()
		return
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		s.err = &margin.APIError{
			Provider: margin.ProviderGemini,
			Status:   apiErr.Code,
			Message:  apiErr.Message,
		}
		return
	}
	s.err = fmt.Errorf("gemini: %w", err)
}

// chunkToEvent round-trips an SDK chunk through JSON back to its wire shape.
func chunkToEvent(chunk *genai.GenerateContentResponse) (map[string]any, error) {
	raw, err := json.Marshal(chunk)
	if err != nil {
		return nil, err
	}
	var event map[string]any
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	return event, nil
}

// splitParts expands a chunk with several candidate parts into one event per
// part. Chunks without candidate parts pass through unchanged.
func splitParts(event map[string]any) []map[string]any {
	candidates, ok := event["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return []map[string]any{event}
	}
	first, ok := candidates[0].(map[string]any)
	if !ok {
		return []map[string]any{event}
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return []map[string]any{event}
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) <= 1 {
		return []map[string]any{event}
	}

	events := make([]map[string]any, 0, len(parts))
	for _, part := range parts {
		events = append(events, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{part}},
			}},
		})
	}
	return events
}
