// Package sse reads Server-Sent-Events frames from a streaming response
// body. It handles only the framing: event type and data payload. Decoding
// the payload is the caller's job.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single SSE line. Large text deltas can exceed
// bufio.Scanner's 64KB default.
const maxLineSize = 1024 * 1024

// Scanner assembles SSE frames from lines. One frame is everything up to a
// blank line: an optional "event:" field and one or more "data:" fields,
// joined with newlines per the SSE spec.
type Scanner struct {
	scanner *bufio.Scanner
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{scanner: s}
}

// Next reads lines until a complete frame is assembled and returns its event
// type and data payload. It returns io.EOF when the underlying body is
// exhausted. Comment lines (leading ':') and unknown fields are ignored.
func (s *Scanner) Next() (eventType, data string, err error) {
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Blank line ends the frame.
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			// Empty frame, keep reading.
			continue
		}

		if after, ok := strings.CutPrefix(line, "event: "); ok {
			eventType = after
		} else if after, ok := strings.CutPrefix(line, "data: "); ok {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(after)
		} else if after, ok := strings.CutPrefix(line, "data:"); ok {
			// Some servers omit the space after the field name.
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(after)
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", err
	}

	// Body ended without a trailing blank line; flush the partial frame.
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}
