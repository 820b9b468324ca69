package margin

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving fragments.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Provider.Stream().
//
// Next() returns the next normalized fragment, or io.EOF once the stream has
// reached its terminal state. Fragments that carry no payload (heartbeats,
// metadata-only events) are consumed internally and never surfaced.
//
// Response() returns the accumulated response. Behavior by stream state:
//   - StreamStateComplete: complete response, nil error.
//   - StreamStateError: partial response, nil error.
//   - StreamStateStreaming: partial response reflecting fragments so far.
//   - StreamStateNew: zero-value response, non-nil error.
//   - StreamStateClosed: partial response; subsequent Next() calls error.
type Stream interface {
	Next() (Fragment, error)
	State() StreamState
	Response() (Response, error)
	Close() error
}

// Response is the result of accumulating a stream's fragments in arrival
// order. StopReason is the provider's raw terminal marker, "" when the
// stream ended without declaring one.
type Response struct {
	Text       string
	Reasoning  string
	StopReason string
}
