package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ebnarten/margin"
)

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 1024 * 1024

// stream implements [margin.Stream] over Ollama's NDJSON wire format. The
// normalizer cannot see termination in this shape, so the done flag on each
// line is checked here before extraction.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	state   margin.StreamState
	resp    margin.Response
	err     error
}

// Interface compliance check.
var _ margin.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &stream{
		body:    body,
		scanner: scanner,
		ctx:     ctx,
		state:   margin.StreamStateNew,
	}
}

// Next reads lines until a fragment with payload arrives or the done flag is
// set. Returns io.EOF on normal completion.
func (s *stream) Next() (margin.Fragment, error) {
	switch s.state {
	case margin.StreamStateComplete:
		return margin.Fragment{}, io.EOF
	case margin.StreamStateError:
		return margin.Fragment{}, s.err
	case margin.StreamStateClosed:
		return margin.Fragment{}, fmt.Errorf("ollama: %w", margin.ErrStreamClosed)
	}

	for {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				s.terminate(err)
			} else {
				s.terminate(io.EOF)
			}
			return margin.Fragment{}, s.err
		}

		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.state = margin.StreamStateStreaming

		var event map[string]any
		if err := json.Unmarshal(line, &event); err != nil {
			s.terminate(fmt.Errorf("ollama: failed to parse line: %w", err))
			return margin.Fragment{}, s.err
		}

		if msg, ok := event["error"].(string); ok && msg != "" {
			s.terminate(fmt.Errorf("ollama: %s", msg))
			return margin.Fragment{}, s.err
		}

		done, _ := event["done"].(bool)
		if done {
			s.captureStopReason(event)
		}

		frag, err := margin.Extract(event)
		if err != nil {
			s.terminate(fmt.Errorf("ollama: %w", err))
			return margin.Fragment{}, s.err
		}

		if done {
			s.state = margin.StreamStateComplete
			if hasPayload(frag) {
				s.accumulate(frag)
				return frag, nil
			}
			return margin.Fragment{}, io.EOF
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
		return margin.Response{}, fmt.Errorf("ollama: no data received yet")
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
	if reason, ok := event["done_reason"].(string); ok && reason != "" {
		s.resp.StopReason = reason
	}
}

// hasPayload reports whether a fragment carries actual content. The final
// done line usually repeats an empty content string, which is not payload.
func hasPayload(frag margin.Fragment) bool {
	if frag.Text != nil && *frag.Text != "" {
		return true
	}
	return frag.Reasoning != nil && *frag.Reasoning != ""
}

// terminate records a terminal error and sets the appropriate state.
func (s *stream) terminate(err error) {
	s.state = margin.StreamStateError
	if err == io.EOF {
		// Normal completion carries done true; raw EOF means the stream
		// ended unexpectedly.
		s.err = fmt.Errorf("ollama: unexpected end of stream")
		return
	}
	if s.ctx.Err() != nil {
		s.err = s.ctx.Err()
		return
	}
	s.err = err
}
