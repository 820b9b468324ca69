package mock_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ebnarten/margin"
	"github.com/ebnarten/margin/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProvider_Stream(t *testing.T) {
	t.Parallel()
	t.Run("delegates to StreamFn and records requests", func(t *testing.T) {
		t.Parallel()
		var s mock.Stream
		p := mock.Provider{
			StreamFn: func(ctx context.Context, req margin.Request) (margin.Stream, error) {
				return &s, nil
			},
		}
		got, err := p.Stream(context.Background(), margin.Request{Prompt: "Hi"})
		require.NoError(t, err)
		assert.Equal(t, &s, got)
		require.Len(t, p.Requests, 1)
		assert.Equal(t, "Hi", p.Requests[0].Prompt)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("api error")
		p := mock.Provider{
			StreamFn: func(ctx context.Context, req margin.Request) (margin.Stream, error) {
				return nil, wantErr
			},
		}
		_, err := p.Stream(context.Background(), margin.Request{})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("panics when StreamFn not set", func(t *testing.T) {
		t.Parallel()
		p := mock.Provider{}
		assert.Panics(t, func() {
			_, _ = p.Stream(context.Background(), margin.Request{})
		})
	})
}

func TestStream_NilSafeDefaults(t *testing.T) {
	t.Parallel()
	s := mock.Stream{}
	assert.Equal(t, margin.StreamStateNew, s.State())
	assert.NoError(t, s.Close())
}

func TestFragmentStream(t *testing.T) {
	t.Parallel()
	s := mock.FragmentStream([]margin.Fragment{
		{Text: strPtr("Hello")},
		{Reasoning: strPtr("hmm")},
		{Text: strPtr(" world")},
	}, "stop")

	var texts, reasonings string
	for {
		frag, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if frag.Text != nil {
			texts += *frag.Text
		}
		if frag.Reasoning != nil {
			reasonings += *frag.Reasoning
		}
	}

	assert.Equal(t, "Hello world", texts)
	assert.Equal(t, "hmm", reasonings)
	assert.Equal(t, margin.StreamStateComplete, s.State())

	resp, err := s.Response()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Text)
	assert.Equal(t, "hmm", resp.Reasoning)
	assert.Equal(t, "stop", resp.StopReason)
}
