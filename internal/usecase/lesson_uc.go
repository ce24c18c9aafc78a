// File: internal/usecase/lesson_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ LessonUseCase = (*lessonUC)(nil)

type LessonUseCase interface {
	// Generate produces a structured lesson for the session's language and
	// reading level. Returns the lesson and the model that served it.
	Generate(ctx context.Context, sessionID, topic string) (*model.Lesson, string, error)
}

type lessonUC struct {
	sessions repository.SessionStore
	router   RouterUseCase
	log      *zerolog.Logger
}

func NewLessonUseCase(sessions repository.SessionStore, router RouterUseCase, logger *zerolog.Logger) *lessonUC {
	l := logger.With().Str("component", "LessonUC").Logger()
	return &lessonUC{sessions: sessions, router: router, log: &l}
}

func (u *lessonUC) Generate(ctx context.Context, sessionID, topic string) (*model.Lesson, string, error) {
	topic, err := ValidateTopic(topic)
	if err != nil {
		return nil, "", err
	}
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, "", err
	}

	sess, err := u.sessions.Get(sessionID)
	if err != nil {
		return nil, "", err
	}

	lesson, modelUsed := u.router.GenerateLesson(ctx, sess, topic)
	u.log.Info().Str("session_id", sessionID[:8]).Str("topic", topic).
		Str("model", modelUsed).Msg("lesson generated")
	return lesson, modelUsed, nil
}
