package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/internal/sse"
)

// stream implements [margin.Stream] over the chat completions SSE protocol.
// Completion is signaled twice on the wire: finish_reason on the last chunk
// and then a [DONE] sentinel. The sentinel is authoritative; finish_reason
// only records the stop reason.
type stream struct {
	body       io.ReadCloser
	frames     *sse.Scanner
	ctx        context.Context
	state      margin.StreamState
	resp       margin.Response
	terminated bool // finish_reason seen
	err        error
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

// Next reads chunks until a fragment with payload arrives or the stream
// terminates. Returns io.EOF on normal completion.
func (s *stream) Next() (margin.Fragment, error) {
	switch s.state {
	case margin.StreamStateComplete:
		return margin.Fragment{}, io.EOF
	case margin.StreamStateError:
		return margin.Fragment{}, s.err
	case margin.StreamStateClosed:
		return margin.Fragment{}, fmt.Errorf("openaicompat: %w", margin.ErrStreamClosed)
	}

	for {
		_, data, err := s.frames.Next()
		if err != nil {
			if err == io.EOF && s.terminated {
				// Some servers close the connection without sending the
				// sentinel once the final chunk is out.
				s.state = margin.StreamStateComplete
				return margin.Fragment{}, io.EOF
			}
			s.terminate(err)
			return margin.Fragment{}, s.err
		}

		s.state = margin.StreamStateStreaming

		if data == doneSentinel {
			s.state = margin.StreamStateComplete
			return margin.Fragment{}, io.EOF
		}

		var event map[string]any
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			s.terminate(fmt.Errorf("openaicompat: failed to parse chunk: %w", err))
			return margin.Fragment{}, s.err
		}

		frag, err := margin.Extract(event)
		if err != nil {
			s.terminate(fmt.Errorf("openaicompat: %w", err))
			return margin.Fragment{}, s.err
		}
		if frag.Terminated {
			s.terminated = true
			s.captureStopReason(event)
			continue
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
		return margin.Response{}, fmt.Errorf("openaicompat: no data received yet")
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
	choices, ok := event["choices"].([]any)
	if !ok || len(choices) == 0 {
		return
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return
	}
	if reason, ok := choice["finish_reason"].(string); ok && reason != "" {
		s.resp.StopReason = reason
	}
}

// terminate records a terminal error and sets the appropriate state.
func (s *stream) terminate(err error) {
	s.state = margin.StreamStateError
	if err == io.EOF {
		s.err = fmt.Errorf("openaicompat: unexpected end of stream")
		return
	}
	if s.ctx.Err() != nil {
		s.err = s.ctx.Err()
		return
	}
	s.err = err
}
