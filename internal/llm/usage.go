package llm

import (
	"context"
	"sync"
)

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var priceTable = map[string]modelPricing{
	"gpt-4o":                     {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":                {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4.1":                    {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	"gpt-4.1-mini":               {InputPerMillion: 0.40, OutputPerMillion: 1.60},
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
}

// EstimateCost returns the estimated cost in USD for the given model and token counts.
// Returns 0 if the model is not found in the price table.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := priceTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000.0*pricing.InputPerMillion +
		float64(outputTokens)/1_000_000.0*pricing.OutputPerMillion
}

// Usage is a snapshot of accumulated token spend.
type Usage struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// UsageTracker is a Provider that counts calls and tokens of the provider it wraps.
type UsageTracker struct {
	provider Provider
	model    string

	mu    sync.Mutex
	usage Usage
}

// NewUsageTracker wraps p. model is used for pricing when a response does
// not report its model.
func NewUsageTracker(p Provider, model string) *UsageTracker {
	return &UsageTracker{provider: p, model: model}
}

func (u *UsageTracker) Name() string {
	return u.provider.Name()
}

func (u *UsageTracker) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := u.provider.Complete(ctx, req)

	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage.Calls++
	if err != nil {
		u.usage.Failures++
		return nil, err
	}
	model := resp.Model
	if _, ok := priceTable[model]; !ok {
		model = u.model
	}
	u.usage.InputTokens += resp.InputTokens
	u.usage.OutputTokens += resp.OutputTokens
	u.usage.CostUSD += EstimateCost(model, resp.InputTokens, resp.OutputTokens)
	return resp, nil
}

// Snapshot returns the usage so far.
func (u *UsageTracker) Snapshot() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usage
}
