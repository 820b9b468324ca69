package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/internal/sse"
)

// stream implements [margin.Stream] over the Messages API SSE protocol.
// Fragment extraction is delegated to the shared normalizer; this type only
// handles framing, termination, and accumulation.
type stream struct {
	body    io.ReadCloser
	frames  *sse.Scanner
	ctx     context.Context
	state   margin.StreamState
	resp    margin.Response
	err     error // terminal error, if any
}

// Interface compliance check.
var _ margin.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:   body,
		frames: sse.NewScanner(body),
		ctx:    ctx,
		state:  margin.StreamStateNew,
	}
}

// Next reads frames until a fragment with payload arrives or the stream
// terminates. Returns io.EOF on normal completion (message_stop).
func (s *stream) Next() (margin.Fragment, error) {
	switch s.state {
	case margin.StreamStateComplete:
		return margin.Fragment{}, io.EOF
	case margin.StreamStateError:
		return margin.Fragment{}, s.err
	case margin.StreamStateClosed:
		return margin.Fragment{}, fmt.Errorf("anthropic: %w", margin.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.frames.Next()
		if err != nil {
			s.terminate(err)
			return margin.Fragment{}, s.err
		}

		s.state = margin.StreamStateStreaming

		switch eventType {
		case "message_stop":
			s.state = margin.StreamStateComplete
			return margin.Fragment{}, io.EOF
		case "ping":
			continue
		case "error":
			s.terminate(parseErrorEvent(data))
			return margin.Fragment{}, s.err
		}

		var event map[string]any
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			s.terminate(fmt.Errorf("anthropic: failed to parse %s event: %w", eventType, err))
			return margin.Fragment{}, s.err
		}

		// message_delta carries the raw stop reason ahead of message_stop.
		if eventType == "message_delta" {
			s.captureStopReason(event)
			continue
		}

		frag, err := margin.Extract(event)
		if err != nil {
			s.terminate(fmt.Errorf("anthropic: %w", err))
			return margin.Fragment{}, s.err
		}
		if frag.Empty() {
			continue
		}

		s.accumulate(frag)
		return frag, nil
	}
}

// State returns the current stream state.
func (s *stream) State() margin.StreamState {
	return s.state
}

// Response returns the response accumulated so far.
func (s *stream) Response() (margin.Response, error) {
	if s.state == margin.StreamStateNew {
		return margin.Response{}, fmt.Errorf("anthropic: no data received yet")
	}
	return s.resp, nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != margin.StreamStateComplete && s.state != margin.StreamStateError {
		s.state = margin.StreamStateClosed
	}
	return s.body.Close()
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
	delta, ok := event["delta"].(map[string]any)
	if !ok {
		return
	}
	if reason, ok := delta["stop_reason"].(string); ok && reason != "" {
		s.resp.StopReason = reason
	}
}

// terminate records a terminal error and sets the appropriate state.
func (s *stream) terminate(err error) {
	s.state = margin.StreamStateError
	if err == io.EOF {
		// Normal completion goes through message_stop; raw EOF means the
		// stream ended unexpectedly.
		s.err = fmt.Errorf("anthropic: unexpected end of stream")
		return
	}
	if s.ctx.Err() != nil {
		s.err = s.ctx.Err()
		return
	}
	s.err = err
}

func parseErrorEvent(data string) error {
	var evt apiErrorResponse
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse error event: %w", err)
	}
	return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
}
