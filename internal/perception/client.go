package perception

import "context"

// LLMClient defines the interface for text-generation providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMClientFunc adapts a function to LLMClient.
type LLMClientFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f LLMClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
