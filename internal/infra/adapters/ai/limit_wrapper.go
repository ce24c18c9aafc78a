package ai

import (
	"context"
	"errors"

	"somaai-backend/internal/domain/ports/adapter"
)

var errNoProvider = errors.New("ai: no provider configured")

// Compile-time check
var _ adapter.CompletionAdapter = (*limitedAI)(nil)

type limitedAI struct {
	inner adapter.CompletionAdapter
	sem   chan struct{}
}

// NewLimitedAI caps concurrent in-flight completions across the process.
func NewLimitedAI(inner adapter.CompletionAdapter, maxConcurrent int) adapter.CompletionAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return adapter.Completion{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Complete(ctx, model, messages, opts)
}
