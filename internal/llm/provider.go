package llm

import "context"

// Provider is a chat-completion backend.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Generate is a convenience for the common system+user prompt shape. It
// returns the trimmed text of the first choice.
func Generate(ctx context.Context, p Provider, system, user string, opts GenerateOptions) (string, error) {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: user})

	resp, err := p.Complete(ctx, CompletionRequest{
		Model:       opts.Model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		JSONMode:    opts.JSONMode,
	})
	if err != nil {
		return "", err
	}
	return trimSpace(resp.Content), nil
}
