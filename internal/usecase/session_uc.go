// File: internal/usecase/session_uc.go
package usecase

import (
	"fmt"

	"github.com/rs/zerolog"

	"somaai-backend/internal/config"
	"somaai-backend/internal/domain"
	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/domain/ports/repository"
	"somaai-backend/internal/infra/content"
	"somaai-backend/internal/infra/metrics"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

type SessionUseCase interface {
	// Create starts a session seeded with the localized system prompt and
	// returns it with the matching welcome message.
	Create(language, readingLevel string) (*model.Session, string, error)
	// SwitchLanguage resets the conversation in the new language and returns
	// the localized confirmation message.
	SwitchLanguage(sessionID, language string) (string, error)
	Get(sessionID string) (*model.Session, error)
	Delete(sessionID string) bool
	Stats() repository.SessionStats
}

type sessionUC struct {
	sessions repository.SessionStore
	content  *content.Store
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewSessionUseCase(sessions repository.SessionStore, cs *content.Store, cfg *config.Config, logger *zerolog.Logger) *sessionUC {
	l := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{sessions: sessions, content: cs, cfg: cfg, log: &l}
}

func (u *sessionUC) Create(language, readingLevel string) (*model.Session, string, error) {
	if !u.cfg.Allowed(language) {
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, language)
	}
	level := model.ParseReadingLevel(readingLevel)

	sess := u.sessions.Create(language, level)
	err := u.sessions.Apply(sess.ID, func(s *model.Session) error {
		s.SeedSystemPrompt(u.content.SystemPrompt(language, string(level)))
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	metrics.SessionCreated(language)
	u.log.Info().Str("session_id", sess.ID[:8]).Str("language", language).
		Str("reading_level", string(level)).Msg("session created")

	sess, err = u.sessions.Get(sess.ID)
	if err != nil {
		return nil, "", err
	}
	return sess, u.content.Welcome(language), nil
}

func (u *sessionUC) SwitchLanguage(sessionID, language string) (string, error) {
	if !u.cfg.Allowed(language) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, language)
	}

	sess, err := u.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	if err := u.sessions.Reset(sessionID, language, sess.ReadingLevel); err != nil {
		return "", err
	}
	err = u.sessions.Apply(sessionID, func(s *model.Session) error {
		s.SeedSystemPrompt(u.content.SystemPrompt(language, string(s.ReadingLevel)))
		return nil
	})
	if err != nil {
		return "", err
	}

	u.log.Info().Str("session_id", sessionID[:8]).Str("language", language).Msg("language switched")
	return u.content.LanguageChanged(language), nil
}

func (u *sessionUC) Get(sessionID string) (*model.Session, error) {
	return u.sessions.Get(sessionID)
}

func (u *sessionUC) Delete(sessionID string) bool {
	return u.sessions.Delete(sessionID)
}

func (u *sessionUC) Stats() repository.SessionStats {
	return u.sessions.Stats()
}
