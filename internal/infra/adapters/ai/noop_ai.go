package ai

import (
	"context"
	"time"

	"somaai-backend/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*NoopAdapter)(nil)

// NoopAdapter implements adapter.CompletionAdapter for local/dev runs.
// It returns a canned answer instead of calling a real backend.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter {
	return &NoopAdapter{}
}

func (a *NoopAdapter) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return adapter.Completion{}, ctx.Err()
	}
	if opts.JSONMode {
		return adapter.Completion{
			Content:      `{"title": "Sample Lesson", "introduction": "This is a development placeholder.", "key_points": ["Point one", "Point two"], "myths_vs_facts": [], "summary": "Placeholder summary.", "resources": []}`,
			FinishReason: adapter.FinishStop,
		}, nil
	}
	return adapter.Completion{
		Content:      "This is a development placeholder response from " + model + ".",
		FinishReason: adapter.FinishStop,
	}, nil
}
