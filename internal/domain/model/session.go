package model

import (
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ReadingLevel string

const (
	ReadingSimple   ReadingLevel = "simple"
	ReadingStandard ReadingLevel = "standard"
	ReadingDetailed ReadingLevel = "detailed"
)

// ParseReadingLevel falls back to "simple" for anything unrecognized.
func ParseReadingLevel(s string) ReadingLevel {
	switch ReadingLevel(s) {
	case ReadingSimple, ReadingStandard, ReadingDetailed:
		return ReadingLevel(s)
	default:
		return ReadingSimple
	}
}

// Turn is one role-tagged message in a session's history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Counters are monotonically increasing until an explicit session reset.
type Counters struct {
	Messages    int `json:"messages"`
	AIResponses int `json:"ai_responses"`
	Tokens      int `json:"tokens"`
}

// Metadata is the free-form bag attached to a session.
type Metadata struct {
	IntentsUsed []string `json:"intents_used"`
}

// RecordIntent adds intent to the used set, preserving insertion order.
func (m *Metadata) RecordIntent(intent string) {
	for _, i := range m.IntentsUsed {
		if i == intent {
			return
		}
	}
	m.IntentsUsed = append(m.IntentsUsed, intent)
}

// Session is the aggregate root for one ongoing conversation.
// The store owns the canonical copy; callers work on clones and write back
// through the store.
type Session struct {
	ID             string       `json:"session_id"`
	Language       string       `json:"language"`
	ReadingLevel   ReadingLevel `json:"reading_level"`
	History        []Turn       `json:"history"`
	SafetyFlags    []string     `json:"safety_flags"`
	Counters       Counters     `json:"counters"`
	Metadata       Metadata     `json:"metadata"`
	CreatedAt      time.Time    `json:"created_at"`
	LastActivityAt time.Time    `json:"last_activity"`
}

func NewSession(id, language string, level ReadingLevel) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		Language:       language,
		ReadingLevel:   level,
		History:        make([]Turn, 0, 8),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Expired reports whether the session is past its TTL relative to now.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.CreatedAt) > ttl
}

func (s *Session) AddTurn(role Role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	s.LastActivityAt = time.Now()
}

// SeedSystemPrompt inserts a system turn at the head of the history.
func (s *Session) SeedSystemPrompt(content string) {
	s.History = append([]Turn{{Role: RoleSystem, Content: content}}, s.History...)
}

// DropSystemTurns removes all system turns, used before reseeding on a
// language change.
func (s *Session) DropSystemTurns() {
	kept := s.History[:0]
	for _, t := range s.History {
		if t.Role != RoleSystem {
			kept = append(kept, t)
		}
	}
	s.History = kept
}

// TrimHistory retains all system turns plus at most the last limit other
// turns, system turns first.
func (s *Session) TrimHistory(limit int) {
	var system, other []Turn
	for _, t := range s.History {
		if t.Role == RoleSystem {
			system = append(system, t)
		} else {
			other = append(other, t)
		}
	}
	if len(other) > limit {
		other = other[len(other)-limit:]
	}
	s.History = append(system, other...)
}

// RecordSafetyFlag adds flag to the session's set, preserving insertion
// order.
func (s *Session) RecordSafetyFlag(flag string) {
	for _, f := range s.SafetyFlags {
		if f == flag {
			return
		}
	}
	s.SafetyFlags = append(s.SafetyFlags, flag)
}

// RecentUserContents returns the contents of the last n user turns, oldest
// first. Used as context for safety screening.
func (s *Session) RecentUserContents(n int) []string {
	var out []string
	for _, t := range s.History {
		if t.Role == RoleUser {
			out = append(out, t.Content)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// Clone returns a deep copy safe to hand outside the store lock.
func (s *Session) Clone() *Session {
	cp := *s
	cp.History = append([]Turn(nil), s.History...)
	cp.SafetyFlags = append([]string(nil), s.SafetyFlags...)
	cp.Metadata.IntentsUsed = append([]string(nil), s.Metadata.IntentsUsed...)
	return &cp
}
