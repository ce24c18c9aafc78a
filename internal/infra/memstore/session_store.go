// File: internal/infra/memstore/session_store.go
package memstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"somaai-backend/internal/domain"
	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/domain/ports/repository"
	"somaai-backend/internal/infra/logging"
)

// Compile-time check
var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore is a concurrent in-memory session map with TTL expiry.
// The lock is held only for map operations, never across backend calls.
type SessionStore struct {
	mu            sync.Mutex
	sessions      map[string]*model.Session
	ttl           time.Duration
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
	log           *zerolog.Logger
}

func NewSessionStore(ttl, sweepInterval time.Duration, logger *zerolog.Logger) *SessionStore {
	l := logger.With().Str("component", "SessionStore").Logger()
	return &SessionStore{
		sessions:      make(map[string]*model.Session),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           time.Now,
		log:           &l,
	}
}

// sweepLocked removes expired sessions at most once per sweep interval.
// Caller holds s.mu.
func (s *SessionStore) sweepLocked() {
	now := s.now()
	if now.Sub(s.lastSweep) < s.sweepInterval {
		return
	}
	s.lastSweep = now

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(s.ttl, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info().Int("expired", removed).Int("remaining", len(s.sessions)).Msg("session sweep")
	}
}

func (s *SessionStore) Create(language string, level model.ReadingLevel) *model.Session {
	sess := model.NewSession(uuid.NewString(), language, level)
	sess.CreatedAt = s.now()
	sess.LastActivityAt = sess.CreatedAt

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.sweepLocked()
	s.mu.Unlock()

	s.log.Info().Str("session_id", logging.Redact(sess.ID, false)).
		Str("language", language).Str("reading_level", string(level)).
		Msg("session created")
	return sess.Clone()
}

func (s *SessionStore) Get(id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if sess.Expired(s.ttl, s.now()) {
		delete(s.sessions, id)
		s.log.Info().Str("session_id", logging.Redact(id, false)).Msg("session expired on get")
		return nil, domain.ErrNotFound
	}
	sess.LastActivityAt = s.now()
	return sess.Clone(), nil
}

func (s *SessionStore) Update(id string, patch repository.SessionPatch) error {
	return s.Apply(id, func(sess *model.Session) error {
		if patch.Language != nil {
			sess.Language = *patch.Language
		}
		if patch.ReadingLevel != nil {
			sess.ReadingLevel = *patch.ReadingLevel
		}
		if patch.History != nil {
			sess.History = append([]model.Turn(nil), patch.History...)
		}
		if patch.SafetyFlags != nil {
			sess.SafetyFlags = append([]string(nil), patch.SafetyFlags...)
		}
		if patch.Counters != nil {
			sess.Counters = *patch.Counters
		}
		if patch.Metadata != nil {
			sess.Metadata = model.Metadata{
				IntentsUsed: append([]string(nil), patch.Metadata.IntentsUsed...),
			}
		}
		return nil
	})
}

func (s *SessionStore) Apply(id string, fn func(*model.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if sess.Expired(s.ttl, s.now()) {
		delete(s.sessions, id)
		return domain.ErrNotFound
	}
	if err := fn(sess); err != nil {
		return err
	}
	sess.LastActivityAt = s.now()
	return nil
}

func (s *SessionStore) Reset(id, language string, level model.ReadingLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := s.now()
	sess.Language = language
	sess.ReadingLevel = level
	sess.History = sess.History[:0]
	sess.SafetyFlags = nil
	sess.Counters = model.Counters{}
	sess.CreatedAt = now
	sess.LastActivityAt = now

	s.log.Info().Str("session_id", logging.Redact(id, false)).
		Str("language", language).Msg("session reset")
	return nil
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *SessionStore) Stats() repository.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	stats := repository.SessionStats{ByLanguage: make(map[string]int)}
	now := s.now()
	var oldest time.Duration
	for _, sess := range s.sessions {
		stats.ActiveSessions++
		stats.TotalMessages += sess.Counters.Messages
		stats.ByLanguage[sess.Language]++
		if age := now.Sub(sess.CreatedAt); age > oldest {
			oldest = age
		}
	}
	stats.OldestSessionAge = oldest
	return stats
}
