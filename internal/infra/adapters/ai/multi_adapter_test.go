package ai_test

import (
	"context"
	"testing"

	"somaai-backend/internal/domain/ports/adapter"
	ai "somaai-backend/internal/infra/adapters/ai"
)

type stubAI struct {
	name      string
	calls     int
	lastModel string
}

func (s *stubAI) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	s.calls++
	s.lastModel = model
	return adapter.Completion{Content: "ok from " + s.name, FinishReason: adapter.FinishStop}, nil
}

func TestRouting_ExplicitMap_Heuristics_And_Fallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	or := &stubAI{name: "openrouter"}
	gem := &stubAI{name: "gemini"}

	m := ai.NewMultiAdapter(
		"openrouter",
		map[string]adapter.CompletionAdapter{"openrouter": or, "gemini": gem},
		map[string]string{"custom-x": "gemini"},
	)

	// explicit map wins
	_, _ = m.Complete(ctx, "custom-x", nil, adapter.Options{})
	if gem.calls != 1 || or.calls != 0 {
		t.Fatalf("explicit map should route to gemini, got or:%d gem:%d", or.calls, gem.calls)
	}
	or.calls, gem.calls = 0, 0

	// vendor-prefixed catalog names -> openrouter
	_, _ = m.Complete(ctx, "mistralai/mistral-nemo:free", nil, adapter.Options{})
	if or.calls != 1 || gem.calls != 0 {
		t.Fatalf("vendor-prefixed model should go to openrouter")
	}
	or.calls, gem.calls = 0, 0

	// gemini-* -> gemini
	_, _ = m.Complete(ctx, "gemini-2.0-flash", nil, adapter.Options{})
	if gem.calls != 1 || or.calls != 0 {
		t.Fatalf("gemini-* should go to gemini")
	}
	or.calls, gem.calls = 0, 0

	// unknown -> default provider
	_, _ = m.Complete(ctx, "unknown", nil, adapter.Options{})
	if or.calls != 1 || gem.calls != 0 {
		t.Fatalf("unknown model should go to default provider")
	}
}

type blockingAI struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAI) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	close(b.started)
	<-b.release
	return adapter.Completion{Content: "done"}, nil
}

func TestLimitWrapper(t *testing.T) {
	t.Parallel()

	inner := &stubAI{name: "inner"}
	if got := ai.NewLimitedAI(inner, 0); got != adapter.CompletionAdapter(inner) {
		t.Fatal("zero limit should return the inner adapter unchanged")
	}

	blocker := &blockingAI{started: make(chan struct{}), release: make(chan struct{})}
	limited := ai.NewLimitedAI(blocker, 1)

	go func() {
		_, _ = limited.Complete(context.Background(), "m", nil, adapter.Options{})
	}()
	<-blocker.started

	// Slot is held; a cancelled caller must not block waiting for it.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := limited.Complete(ctx, "m", nil, adapter.Options{}); err != context.Canceled {
		t.Fatalf("saturated wrapper with cancelled ctx: err = %v, want context.Canceled", err)
	}
	close(blocker.release)
}
