package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"somaai-backend/internal/config"
	"somaai-backend/internal/domain/ports/adapter"
	"somaai-backend/internal/infra/content"
	"somaai-backend/internal/infra/memstore"
	"somaai-backend/internal/infra/tokens"
)

// scriptedAI replays a fixed sequence of outcomes; the last entry repeats
// once the script runs out.
type scriptedAI struct {
	mu     sync.Mutex
	script []func() (adapter.Completion, error)

	calls     int
	lastModel string
	lastMsgs  []adapter.Message
	lastOpts  adapter.Options
}

func (s *scriptedAI) Complete(ctx context.Context, model string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	s.lastModel = model
	s.lastMsgs = messages
	s.lastOpts = opts
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	return s.script[idx]()
}

func answer(text string) func() (adapter.Completion, error) {
	return func() (adapter.Completion, error) {
		return adapter.Completion{Content: text, FinishReason: adapter.FinishStop}, nil
	}
}

func answerTruncated(text string) func() (adapter.Completion, error) {
	return func() (adapter.Completion, error) {
		return adapter.Completion{Content: text, FinishReason: adapter.FinishLength}, nil
	}
}

func failStatus(code int) func() (adapter.Completion, error) {
	return func() (adapter.Completion, error) {
		return adapter.Completion{}, &adapter.BackendError{StatusCode: code, Err: fmt.Errorf("http %d", code)}
	}
}

func failTimeout() func() (adapter.Completion, error) {
	return func() (adapter.Completion, error) {
		return adapter.Completion{}, context.DeadlineExceeded
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Session:   config.SessionConfig{TTL: 4 * time.Hour, SweepInterval: 5 * time.Minute, HistoryLimit: 20},
		RateLimit: config.RateLimitConfig{Requests: 60, Window: time.Minute},
		Cache:     config.CacheConfig{TTL: 30 * time.Minute, MaxSize: 1000},
		AI: config.AIConfig{
			StandardModel:  "mistralai/mistral-nemo:free",
			AdvancedModel:  "meta-llama/llama-3.3-70b-instruct:free",
			RequestTimeout: 5 * time.Second,
			MaxRetries:     2,
		},
		Languages: []string{"en", "fr", "pt", "es", "sw", "hi"},
	}
}

func testContent(t *testing.T) *content.Store {
	t.Helper()
	logger := zerolog.Nop()
	cs, err := content.NewStore(content.LocalesFS, t.TempDir(), []string{"en", "fr", "pt", "es", "sw", "hi"}, &logger)
	if err != nil {
		t.Fatalf("content store: %v", err)
	}
	return cs
}

func newTestRouter(t *testing.T, ai adapter.CompletionAdapter) *routerUC {
	t.Helper()
	logger := zerolog.Nop()
	cfg := testConfig()
	r := NewRouterUseCase(ai,
		memstore.NewResponseCache(cfg.Cache.TTL, cfg.Cache.MaxSize),
		testContent(t),
		tokens.NewEstimator(),
		cfg.AI,
		&logger,
	)
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return r
}
