// Package assist orchestrates a single question/answer round against a
// configured provider. Parameters are normalized against the capability
// matrix before sending, the stream is drained into a response, and a
// recognized constraint rejection is retried once with corrected parameters.
package assist

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ebnarten/margin"
	"github.com/rs/zerolog"
)

// Result is the outcome of a completed run.
type Result struct {
	Response margin.Response

	// Adjustments lists every parameter change made before sending,
	// including those from a retry.
	Adjustments []margin.Adjustment

	// Retried reports whether the request was resent after a constraint
	// rejection.
	Retried bool
}

// Runner sends requests through registered providers. The zero value is not
// usable; construct with [NewRunner].
type Runner struct {
	providers  map[margin.ProviderID]margin.Provider
	applier    *margin.Applier
	logger     zerolog.Logger
	onFragment func(margin.Fragment)
}

// Option configures a [Runner].
type Option func(*Runner)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithApplier sets the constraint applier. Default uses the built-in
// capability matrix.
func WithApplier(a *margin.Applier) Option {
	return func(r *Runner) { r.applier = a }
}

// WithFragmentHandler sets a callback invoked for every fragment as it
// arrives, before the run completes. Useful for incremental display.
func WithFragmentHandler(fn func(margin.Fragment)) Option {
	return func(r *Runner) { r.onFragment = fn }
}

// NewRunner creates a [Runner] over the given providers.
func NewRunner(providers map[margin.ProviderID]margin.Provider, opts ...Option) *Runner {
	r := &Runner{
		providers: providers,
		applier:   margin.NewApplier(margin.DefaultMatrix()),
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run validates and sends the request, streaming the response to completion.
// A provider rejection whose message parses as a constraint violation is
// retried exactly once with parameters corrected from the violation; any
// further failure is returned as-is.
func (r *Runner) Run(ctx context.Context, providerID margin.ProviderID, req margin.Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	provider, ok := r.providers[providerID]
	if !ok {
		return Result{}, fmt.Errorf("assist: no provider registered for %q", providerID)
	}

	params, adjustments := r.applier.Apply(providerID, req.Model, req.Params)
	r.logAdjustments(adjustments)
	req.Params = params

	result := Result{Adjustments: adjustments}

	resp, err := r.attempt(ctx, provider, req)
	if err == nil {
		result.Response = resp
		return result, nil
	}

	violation := retryableViolation(err, resp)
	if violation == nil {
		return Result{}, err
	}

	retryParams := margin.BuildRetry(req.Params, violation)
	retryParams, retryAdjustments := r.applier.Apply(providerID, req.Model, retryParams)
	r.logAdjustments(retryAdjustments)
	result.Adjustments = append(result.Adjustments, retryAdjustments...)
	req.Params = retryParams

	r.logger.Warn().
		Str("provider", string(providerID)).
		Err(err).
		Msg("request rejected for constraint violation, retrying once")
	result.Retried = true

	resp, err = r.attempt(ctx, provider, req)
	if err != nil {
		return Result{}, err
	}
	result.Response = resp
	return result, nil
}

// attempt opens a stream and drains it. On a mid-stream failure the partial
// response accumulated so far is returned alongside the error.
func (r *Runner) attempt(ctx context.Context, provider margin.Provider, req margin.Request) (margin.Response, error) {
	stream, err := provider.Stream(ctx, req)
	if err != nil {
		return margin.Response{}, err
	}
	defer stream.Close()

	for {
		frag, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			resp, _ := stream.Response()
			return resp, err
		}
		if r.onFragment != nil {
			r.onFragment(frag)
		}
	}
	return stream.Response()
}

func (r *Runner) logAdjustments(adjustments []margin.Adjustment) {
	for _, adj := range adjustments {
		r.logger.Info().
			Str("field", adj.Field).
			Interface("from", adj.From).
			Interface("to", adj.To).
			Str("reason", adj.Reason).
			Msg("adjusted request parameter")
	}
}

// retryableViolation returns the parsed violation when the error is a
// recognized constraint rejection that arrived before any content.
func retryableViolation(err error, resp margin.Response) margin.ConstraintViolation {
	if resp.Text != "" || resp.Reasoning != "" {
		return nil
	}
	var apiErr *margin.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	return margin.ParseViolation(apiErr.Message)
}
