// File: internal/usecase/router_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"somaai-backend/internal/config"
	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/domain/ports/adapter"
	"somaai-backend/internal/infra/content"
	"somaai-backend/internal/infra/memstore"
	"somaai-backend/internal/infra/metrics"
	"somaai-backend/internal/infra/tokens"
	"somaai-backend/internal/safety"
)

// Compile-time check
var _ RouterUseCase = (*routerUC)(nil)

// Complexity buckets the effort a query is expected to take.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Backend capability tiers.
const (
	BackendStandard = "standard"
	BackendAdvanced = "advanced"
)

// RouteResult is the outcome of routing one chat turn to a backend.
type RouteResult struct {
	Answer     string
	Model      string
	Backend    string
	Confidence float64
	Complexity Complexity
	Cached     bool
	Fallback   bool
	// TokensEstimated covers the prompt plus the answer.
	TokensEstimated int
}

type RouterUseCase interface {
	// RouteChat picks a model, consults the response cache, calls the
	// backend with bounded retries, and never propagates a backend failure:
	// terminal errors degrade to a localized fallback answer.
	RouteChat(ctx context.Context, sess *model.Session, message string, intent safety.Intent, flags []safety.Flag) RouteResult
	// GenerateLesson produces a structured lesson document on the advanced
	// tier. Unparseable output degrades to a placeholder document.
	GenerateLesson(ctx context.Context, sess *model.Session, topic string) (*model.Lesson, string)
}

type routerUC struct {
	ai      adapter.CompletionAdapter
	cache   *memstore.ResponseCache
	content *content.Store
	est     *tokens.Estimator
	cfg     config.AIConfig
	log     *zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRouterUseCase(ai adapter.CompletionAdapter, cache *memstore.ResponseCache, cs *content.Store, est *tokens.Estimator, cfg config.AIConfig, logger *zerolog.Logger) *routerUC {
	l := logger.With().Str("component", "RouterUC").Logger()
	return &routerUC{
		ai:      ai,
		cache:   cache,
		content: cs,
		est:     est,
		cfg:     cfg,
		log:     &l,
		sleep:   sleepCtx,
	}
}

var complexityIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\b(why|how|explain|describe|compare|analyze|evaluate|discuss)\b`),
	regexp.MustCompile(`\b(what is|what are|what causes|what happens)\b`),
	regexp.MustCompile(`\?.*\?`), // multiple questions
}

// EstimateComplexity buckets a query by length, interrogative indicators, and
// how deep the conversation already is.
func EstimateComplexity(message string, historyLength int) Complexity {
	if len(message) > 500 {
		return ComplexityComplex
	}
	lower := strings.ToLower(message)
	indicators := 0
	for _, p := range complexityIndicators {
		if p.MatchString(lower) {
			indicators++
		}
	}
	if historyLength > 15 {
		return ComplexityComplex
	}
	switch {
	case indicators >= 2 || len(message) > 300:
		return ComplexityComplex
	case indicators >= 1 || len(message) > 150:
		return ComplexityMedium
	default:
		return ComplexitySimple
	}
}

// selectBackend always escalates sensitive or flagged traffic to the advanced
// tier; only clean, non-complex queries ride the standard tier.
func (r *routerUC) selectBackend(intent safety.Intent, flags []safety.Flag, complexity Complexity) (backend, modelName string) {
	switch {
	case safety.Sensitive(intent) || safety.Has(flags, safety.FlagBlockedContext):
		return BackendAdvanced, r.cfg.AdvancedModel
	case complexity == ComplexityComplex:
		return BackendAdvanced, r.cfg.AdvancedModel
	case safety.Has(flags, safety.FlagLowConfidence) || safety.Has(flags, safety.FlagNeedsReview):
		return BackendAdvanced, r.cfg.AdvancedModel
	default:
		return BackendStandard, r.cfg.StandardModel
	}
}

var maxTokensByComplexity = map[Complexity]int{
	ComplexitySimple:  400,
	ComplexityMedium:  600,
	ComplexityComplex: 800,
}

func (r *routerUC) RouteChat(ctx context.Context, sess *model.Session, message string, intent safety.Intent, flags []safety.Flag) RouteResult {
	complexity := EstimateComplexity(message, len(sess.History))
	backend, modelName := r.selectBackend(intent, flags, complexity)

	if complexity == ComplexitySimple {
		cached, ok := r.cache.Get("chat_response",
			memstore.Named("message", truncate(message, 100)),
			memstore.Named("intent", string(intent)),
			memstore.Named("model", modelName),
		)
		metrics.CacheLookup(ok)
		if ok {
			r.log.Info().Str("intent", string(intent)).Msg("cache hit for chat response")
			return RouteResult{
				Answer:     cached,
				Model:      modelName,
				Backend:    backend,
				Confidence: 0.90,
				Complexity: complexity,
				Cached:     true,
			}
		}
	}

	messages := make([]adapter.Message, 0, len(sess.History)+1)
	for _, t := range sess.History {
		messages = append(messages, adapter.Message{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, adapter.Message{Role: "user", Content: message})

	temperature := 0.6
	switch intent {
	case safety.IntentConsent, safety.IntentAssaultSupport, safety.IntentEmergency:
		temperature = 0.4
	}

	comp, err := r.complete(ctx, backend, modelName, messages, adapter.Options{
		Temperature: temperature,
		MaxTokens:   maxTokensByComplexity[complexity],
	})
	if err != nil {
		r.log.Error().Err(err).Str("intent", string(intent)).Str("model", modelName).Msg("failed to get AI response")
		metrics.AIFallback(backend, modelName)
		return RouteResult{
			Answer:     r.content.Fallback(sess.Language),
			Model:      modelName,
			Backend:    backend,
			Confidence: 0.3,
			Complexity: complexity,
			Fallback:   true,
		}
	}

	confidence := confidenceFor(backend, comp.FinishReason)

	if complexity == ComplexitySimple {
		r.cache.Set("chat_response", comp.Content,
			memstore.Named("message", truncate(message, 100)),
			memstore.Named("intent", string(intent)),
			memstore.Named("model", modelName),
		)
	}

	promptTokens := r.est.CountMessages(messages)
	answerTokens := r.est.Count(comp.Content)
	metrics.AddTokens(backend, modelName, "in", promptTokens)
	metrics.AddTokens(backend, modelName, "out", answerTokens)

	return RouteResult{
		Answer:          comp.Content,
		Model:           modelName,
		Backend:         backend,
		Confidence:      confidence,
		Complexity:      complexity,
		TokensEstimated: promptTokens + answerTokens,
	}
}

const lessonPromptTemplate = `Generate a comprehensive, age-appropriate educational lesson about "%TOPIC%" for adolescents.

Requirements:
- Language: %LANG%
- Reading Level: %LEVEL%
- Format: JSON only
- Be accurate, culturally sensitive, and supportive

JSON Structure:
{
    "title": "Lesson title in %LANG%",
    "intro": "Engaging introduction paragraph",
    "key_points": ["Point 1", "Point 2", "Point 3-5 total"],
    "myths_vs_facts": [
        {"myth": "Common misconception", "fact": "Evidence-based fact"},
        {"myth": "Another myth", "fact": "Correct information"}
    ],
    "summary": "Concise summary paragraph",
    "resources": ["Resource 1", "Resource 2"]
}

Generate the lesson now:`

func (r *routerUC) GenerateLesson(ctx context.Context, sess *model.Session, topic string) (*model.Lesson, string) {
	modelName := r.cfg.AdvancedModel

	prompt := strings.NewReplacer(
		"%TOPIC%", topic,
		"%LANG%", sess.Language,
		"%LEVEL%", string(sess.ReadingLevel),
	).Replace(lessonPromptTemplate)

	messages := make([]adapter.Message, 0, len(sess.History)+1)
	for _, t := range sess.History {
		messages = append(messages, adapter.Message{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, adapter.Message{Role: "user", Content: prompt})

	comp, err := r.complete(ctx, BackendAdvanced, modelName, messages, adapter.Options{
		Temperature: 0.7,
		MaxTokens:   1200,
		JSONMode:    true,
	})
	if err != nil {
		r.log.Error().Err(err).Str("topic", topic).Msg("failed to generate lesson")
		return model.PlaceholderLesson(topic), modelName
	}

	var lesson model.Lesson
	if err := json.Unmarshal([]byte(stripCodeFence(comp.Content)), &lesson); err != nil {
		r.log.Error().Err(err).Str("topic", topic).Msg("failed to parse lesson JSON")
		return model.PlaceholderLesson(topic), modelName
	}
	lesson.Repair(topic)
	return &lesson, modelName
}

// complete issues one backend call per attempt, each under its own request
// timeout, retrying transient failures with a growing delay.
func (r *routerUC) complete(ctx context.Context, backend, modelName string, messages []adapter.Message, opts adapter.Options) (adapter.Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * time.Second
			var be *adapter.BackendError
			if errors.As(lastErr, &be) {
				// server-side failures get more breathing room than timeouts
				delay *= 2
			}
			metrics.AIRetry(backend, modelName)
			r.log.Info().Int("retry", attempt).Dur("delay", delay).Str("model", modelName).Msg("retrying backend call")
			if err := r.sleep(ctx, delay); err != nil {
				return adapter.Completion{}, lastErr
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
		start := time.Now()
		comp, err := r.ai.Complete(callCtx, modelName, messages, opts)
		cancel()
		metrics.ObserveAICall(backend, modelName, int(time.Since(start).Milliseconds()), err == nil)

		if err == nil {
			if comp.Content == "" {
				lastErr = errors.New("empty completion")
				continue
			}
			return comp, nil
		}
		lastErr = err
		if !adapter.Retryable(err) {
			return adapter.Completion{}, err
		}
	}
	return adapter.Completion{}, lastErr
}

func confidenceFor(backend string, reason adapter.FinishReason) float64 {
	base := 0.85
	if backend == BackendAdvanced {
		base = 0.90
	}
	switch reason {
	case adapter.FinishStop:
		return base
	case adapter.FinishLength:
		return base * 0.8
	default:
		return base * 0.7
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// stripCodeFence tolerates models that wrap JSON in a markdown fence despite
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
