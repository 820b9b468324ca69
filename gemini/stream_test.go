package gemini_test

import (
	"context"
	"io"
	"testing"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockChunks returns a genai-style streaming iterator from pre-built chunks.
func mockChunks(chunks []*genai.GenerateContentResponse) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
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

func TestStream_TextChunks(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "Hello"}}},
			}},
		},
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: " world"}}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))

	frags := collectFragments(t, s)
	require.Len(t, frags, 2)
	assert.Equal(t, "Hello", *frags[0].Text)
	assert.Equal(t, " world", *frags[1].Text)
	assert.Equal(t, margin.StreamStateComplete, s.State())

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Text)
	assert.Equal(t, string(genai.FinishReasonStop), resp.StopReason)
}

func TestStream_ThoughtPartsBecomeReasoning(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "Considering the chapter so far.", Thought: true},
				}},
			}},
		},
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "The letter was forged."}}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))

	frags := collectFragments(t, s)
	require.Len(t, frags, 2)
	assert.Equal(t, "Considering the chapter so far.", *frags[0].Reasoning)
	assert.Nil(t, frags[0].Text)
	assert.Equal(t, "The letter was forged.", *frags[1].Text)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Considering the chapter so far.", resp.Reasoning)
	assert.Equal(t, "The letter was forged.", resp.Text)
}

func TestStream_MultiPartChunkSplit(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "First the plan.", Thought: true},
					{Text: "Then the answer."},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))

	frags := collectFragments(t, s)
	require.Len(t, frags, 2)
	assert.Equal(t, "First the plan.", *frags[0].Reasoning)
	assert.Equal(t, "Then the answer.", *frags[1].Text)

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, string(genai.FinishReasonStop), resp.StopReason)
}

func TestStream_EmptyChunksSkipped(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "ok"}}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))

	frags := collectFragments(t, s)
	require.Len(t, frags, 1)
	assert.Equal(t, "ok", *frags[0].Text)
}

func TestStream_IteratorError(t *testing.T) {
	t.Parallel()
	iterFn := func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(nil, genai.APIError{Code: 400, Message: "temperature must be between 0 and 1"})
	}
	s := gemini.NewStreamFromIter(context.Background(), iterFn)

	_, err := s.Next()
	require.Error(t, err)

	var apiErr *margin.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, margin.ProviderGemini, apiErr.Provider)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "temperature must be between 0 and 1", apiErr.Message)
	assert.Equal(t, margin.StreamStateError, s.State())
}

func TestStream_CloseBeforeTerminal(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Hello"}}},
		}}},
	}
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))

	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, margin.StreamStateClosed, s.State())
	_, err = s.Next()
	assert.ErrorIs(t, err, margin.ErrStreamClosed)
}

func TestStream_ResponseBeforeNext(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(nil))

	_, err := s.Response()
	assert.Error(t, err)
}
