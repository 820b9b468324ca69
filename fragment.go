package margin

// Fragment is one normalized increment of a streamed response. Text and
// Reasoning distinguish absence (nil) from an empty string: some providers
// legitimately send an empty content field alongside their own done flag.
type Fragment struct {
	Text       *string
	Reasoning  *string
	Terminated bool
}

// Empty reports whether the fragment carries no payload and no termination.
// Heartbeat and metadata-only events normalize to empty fragments.
func (f Fragment) Empty() bool {
	return f.Text == nil && f.Reasoning == nil && !f.Terminated
}
