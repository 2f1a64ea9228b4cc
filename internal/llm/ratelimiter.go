package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with a token bucket. The bucket holds
// one minute's worth of requests so short bursts go through unthrottled.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows at most rpm requests per minute. A
// non-positive rpm returns the provider unwrapped.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}
