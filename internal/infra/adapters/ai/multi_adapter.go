package ai

import (
	"context"
	"strings"

	"somaai-backend/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*MultiAdapter)(nil)

// MultiAdapter routes each completion to a provider based on the model name.
// OpenRouter models carry a vendor prefix ("mistralai/...", "meta-llama/...");
// Gemini models start with "gemini".
type MultiAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.CompletionAdapter
	modelToProvider map[string]string
}

// NewMultiAdapter does not inject any default model; it only knows a default
// provider. Model defaults belong to the caller.
func NewMultiAdapter(
	defaultProvider string,
	byProvider map[string]adapter.CompletionAdapter,
	modelToProvider map[string]string,
) *MultiAdapter {
	return &MultiAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.Contains(l, "/"): // vendor-prefixed catalog names
		return "openrouter"
	default:
		return m.defaultProvider
	}
}

func (m *MultiAdapter) pick(model string) adapter.CompletionAdapter {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return a
	}
	// last resort: first available
	for _, a := range m.byProvider {
		if a != nil {
			return a
		}
	}
	return nil
}

func (m *MultiAdapter) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	a := m.pick(model)
	if a == nil {
		return adapter.Completion{}, &adapter.BackendError{StatusCode: 503, Err: errNoProvider}
	}
	return a.Complete(ctx, model, messages, opts)
}
