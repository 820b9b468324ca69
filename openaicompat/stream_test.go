package openaicompat_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/openaicompat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamFromChunks(t *testing.T, chunks []string) margin.Stream {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		var b strings.Builder
		for _, chunk := range chunks {
			b.WriteString("data: ")
			b.WriteString(chunk)
			b.WriteString("\n\n")
		}
		w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	client := openaicompat.New("sk-test", openaicompat.WithBaseURL(srv.URL))
	stream, err := client.Stream(context.Background(), margin.Request{Prompt: "Hi"})
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream
}

func collectFragments(t *testing.T, s margin.Stream) []margin.Fragment {
	t.Helper()
	var frags []margin.Fragment
	for {
		frag, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frags = append(frags, frag)
	}
	return frags
}

func TestStream_TextResponse(t *testing.T) {
	t.Parallel()
	s := streamFromChunks(t, []string{
		`{"choices":[{"delta":{"role":"assistant"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":"Hello"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":" "},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":"World"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	})

	frags := collectFragments(t, s)
	require.Len(t, frags, 3)
	assert.Equal(t, "Hello", *frags[0].Text)
	assert.Equal(t, " ", *frags[1].Text)
	assert.Equal(t, "World", *frags[2].Text)
	assert.Equal(t, margin.StreamStateComplete, s.State())

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Hello World", resp.Text)
	assert.Equal(t, "stop", resp.StopReason)
}

func TestStream_ReasoningContent(t *testing.T) {
	t.Parallel()
	s := streamFromChunks(t, []string{
		`{"choices":[{"delta":{"reasoning_content":"Weighing the"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"reasoning_content":" evidence."},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":"Yes."},"finish_reason":null}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	})

	frags := collectFragments(t, s)
	require.Len(t, frags, 3)
	assert.Equal(t, "Weighing the", *frags[0].Reasoning)
	assert.Nil(t, frags[0].Text)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Weighing the evidence.", resp.Reasoning)
	assert.Equal(t, "Yes.", resp.Text)
}

func TestStream_ContentOnFinalChunkDropped(t *testing.T) {
	t.Parallel()
	s := streamFromChunks(t, []string{
		`{"choices":[{"delta":{"content":"partial"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{"content":"tail"},"finish_reason":"length"}]}`,
		`[DONE]`,
	})

	frags := collectFragments(t, s)
	require.Len(t, frags, 1)
	assert.Equal(t, "partial", *frags[0].Text)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "partial", resp.Text)
	assert.Equal(t, "length", resp.StopReason)
}

func TestStream_MissingSentinelAfterFinishReason(t *testing.T) {
	t.Parallel()
	s := streamFromChunks(t, []string{
		`{"choices":[{"delta":{"content":"ok"},"finish_reason":null}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
	})

	frags := collectFragments(t, s)
	require.Len(t, frags, 1)
	assert.Equal(t, margin.StreamStateComplete, s.State())
}

func TestStream_UnexpectedEOF(t *testing.T) {
	t.Parallel()
	s := streamFromChunks(t, []string{
		`{"choices":[{"delta":{"content":"par"},"finish_reason":null}]}`,
	})

	frag, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "par", *frag.Text)

	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end of stream")
	assert.Equal(t, margin.StreamStateError, s.State())
}

func TestStream_MalformedChunk(t *testing.T) {
	t.Parallel()
	s := streamFromChunks(t, []string{
		`{"choices":[{"delta":{"content":"ok"},"finish_reason":null}]}`,
		`{not json`,
	})

	_, err := s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse chunk")
}

func TestStream_CloseBeforeTerminal(t *testing.T) {
	t.Parallel()
	s := streamFromChunks(t, []string{
		`{"choices":[{"delta":{"content":"Hello"},"finish_reason":null}]}`,
		`[DONE]`,
	})

	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, margin.StreamStateClosed, s.State())
	_, err = s.Next()
	assert.ErrorIs(t, err, margin.ErrStreamClosed)
}
