package mock

import (
	"io"

	"github.com/ebnarten/margin"
)

// Interface compliance check.
var _ margin.Stream = (*Stream)(nil)

// Stream is a test double for margin.Stream.
// Set the function fields for the methods you need. NextFn and ResponseFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because test code commonly calls defer stream.Close()
// and these methods rarely need custom behavior.
type Stream struct {
	NextFn     func() (margin.Fragment, error)
	StateFn    func() margin.StreamState
	ResponseFn func() (margin.Response, error)
	CloseFn    func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (margin.Fragment, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() margin.StreamState {
	if s.StateFn == nil {
		return margin.StreamStateNew
	}
	return s.StateFn()
}

// Response delegates to ResponseFn.
func (s *Stream) Response() (margin.Response, error) {
	return s.ResponseFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// FragmentStream returns a Stream that yields the given fragments in order,
// then io.EOF, accumulating into the response as a real stream would.
func FragmentStream(frags []margin.Fragment, stopReason string) *Stream {
	var resp margin.Response
	i := 0
	return &Stream{
		NextFn: func() (margin.Fragment, error) {
			if i >= len(frags) {
				resp.StopReason = stopReason
				return margin.Fragment{}, io.EOF
			}
			frag := frags[i]
			i++
			if frag.Text != nil {
				resp.Text += *frag.Text
			}
			if frag.Reasoning != nil {
				resp.Reasoning += *frag.Reasoning
			}
			return frag, nil
		},
		StateFn: func() margin.StreamState {
			if i >= len(frags) {
				return margin.StreamStateComplete
			}
			return margin.StreamStateStreaming
		},
		ResponseFn: func() (margin.Response, error) {
			return resp, nil
		},
	}
}
