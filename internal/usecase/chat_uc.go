// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"somaai-backend/internal/config"
	"somaai-backend/internal/domain"
	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/domain/ports/repository"
	"somaai-backend/internal/infra/content"
	"somaai-backend/internal/infra/memstore"
	"somaai-backend/internal/infra/metrics"
	"somaai-backend/internal/readability"
	"somaai-backend/internal/safety"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// ChatResult is the full per-turn response: the same answer rendered at two
// reading levels, plus routing metadata for the client.
type ChatResult struct {
	AnswerSimple   string
	AnswerDetailed string
	ModelUsed      string
	Backend        string
	Confidence     float64
	Intent         safety.Intent
	ReadingLevel   model.ReadingLevel
	Cached         bool
	Fallback       bool
}

type ChatUseCase interface {
	// SendMessage runs one full turn. language, when non-empty and different
	// from the session's, switches the conversation language first.
	// A blocked or rejected turn leaves the session history untouched.
	SendMessage(ctx context.Context, sessionID, message, language string) (*ChatResult, error)
}

type chatUC struct {
	sessions repository.SessionStore
	limiter  *memstore.RateLimiter
	router   RouterUseCase
	content  *content.Store
	cfg      *config.Config
	log      *zerolog.Logger

	locks turnLocks
}

func NewChatUseCase(sessions repository.SessionStore, limiter *memstore.RateLimiter, router RouterUseCase, cs *content.Store, cfg *config.Config, logger *zerolog.Logger) *chatUC {
	l := logger.With().Str("component", "ChatUC").Logger()
	return &chatUC{
		sessions: sessions,
		limiter:  limiter,
		router:   router,
		content:  cs,
		cfg:      cfg,
		log:      &l,
		locks:    turnLocks{m: make(map[string]*turnLock)},
	}
}

const safetyContextTurns = 5

func (c *chatUC) SendMessage(ctx context.Context, sessionID, message, language string) (*ChatResult, error) {
	message, err := ValidateMessage(message)
	if err != nil {
		return nil, err
	}
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if language != "" && !c.cfg.Allowed(language) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, language)
	}

	// One turn at a time per session: concurrent turns would interleave
	// history writes and double-spend the rate budget.
	unlock := c.locks.lock(sessionID)
	defer unlock()

	if allowed, _ := c.limiter.Allow(sessionID); !allowed {
		c.log.Warn().Str("session_id", sessionID[:8]).Msg("rate limit exceeded")
		metrics.RateLimited()
		return nil, domain.ErrRateLimited
	}

	sess, err := c.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if language != "" && language != sess.Language {
		err := c.sessions.Apply(sessionID, func(s *model.Session) error {
			s.Language = language
			s.DropSystemTurns()
			s.SeedSystemPrompt(c.content.SystemPrompt(language, string(s.ReadingLevel)))
			return nil
		})
		if err != nil {
			return nil, err
		}
		sess, err = c.sessions.Get(sessionID)
		if err != nil {
			return nil, err
		}
	}

	flags := safety.Check(message, sess.RecentUserContents(safetyContextTurns))
	if safety.Blocked(flags) {
		c.log.Warn().Str("session_id", sessionID[:8]).
			Str("message_preview", preview(message, 50)).Msg("message blocked by safety filter")
		metrics.SafetyBlocked(string(safety.FlagBlocked))
		return nil, domain.ErrSafetyBlocked
	}

	intent := safety.ClassifyIntent(message)

	// The backend call happens on the session clone; the store is only
	// locked again for the final write-back.
	res := c.router.RouteChat(ctx, sess, message, intent, flags)

	answerSimple := c.content.InjectGlossary(
		readability.Adapt(res.Answer, model.ReadingSimple), sess.Language)
	answerDetailed := c.content.InjectGlossary(
		readability.Adapt(res.Answer, model.ReadingDetailed), sess.Language)

	err = c.sessions.Apply(sessionID, func(s *model.Session) error {
		s.Metadata.RecordIntent(string(intent))
		for _, f := range safety.Strings(flags) {
			s.RecordSafetyFlag(f)
		}
		s.AddTurn(model.RoleUser, message)
		s.AddTurn(model.RoleAssistant, answerSimple)
		s.Counters.Messages++
		s.Counters.AIResponses++
		s.Counters.Tokens += res.TokensEstimated
		s.TrimHistory(c.cfg.Session.HistoryLimit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MessageProcessed(string(intent), res.Backend)
	c.log.Info().Str("session_id", sessionID[:8]).Str("intent", string(intent)).
		Str("model", res.Model).Bool("cached", res.Cached).Bool("fallback", res.Fallback).
		Msg("chat turn complete")

	return &ChatResult{
		AnswerSimple:   answerSimple,
		AnswerDetailed: answerDetailed,
		ModelUsed:      res.Model,
		Backend:        res.Backend,
		Confidence:     res.Confidence,
		Intent:         intent,
		ReadingLevel:   sess.ReadingLevel,
		Cached:         res.Cached,
		Fallback:       res.Fallback,
	}, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// turnLocks hands out one mutex per session id, dropping entries once the
// last holder releases so the map does not grow with dead sessions.
type turnLocks struct {
	mu sync.Mutex
	m  map[string]*turnLock
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

func (t *turnLocks) lock(id string) (unlock func()) {
	t.mu.Lock()
	l, ok := t.m[id]
	if !ok {
		l = &turnLock{}
		t.m[id] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.m, id)
		}
		t.mu.Unlock()
	}
}
