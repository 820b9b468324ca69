// Package mock provides test doubles for margin interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/ebnarten/margin"
)

// Interface compliance check.
var _ margin.Provider = (*Provider)(nil)

// Provider is a test double for margin.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req margin.Request) (margin.Stream, error)

	// Requests records every request passed to Stream, in order.
	Requests []margin.Request
}

// Stream records the request and delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req margin.Request) (margin.Stream, error) {
	p.Requests = append(p.Requests, req)
	return p.StreamFn(ctx, req)
}
