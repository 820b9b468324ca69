// Package gemini implements [margin.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK for transport and request
// marshaling. Streaming chunks are converted back to their wire JSON form
// and fed through the shared fragment normalizer, so every provider takes
// the same extraction path.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192
)
