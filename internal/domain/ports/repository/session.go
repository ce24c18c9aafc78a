package repository

import (
	"time"

	"somaai-backend/internal/domain/model"
)

// SessionPatch is a field-level merge applied by Update. Nil fields are left
// untouched; set fields overwrite (last write wins per field).
type SessionPatch struct {
	Language     *string
	ReadingLevel *model.ReadingLevel
	History      []model.Turn
	SafetyFlags  []string
	Counters     *model.Counters
	Metadata     *model.Metadata
}

// SessionStats is the aggregate view served by the admin API.
type SessionStats struct {
	ActiveSessions   int            `json:"active_sessions"`
	TotalMessages    int            `json:"total_messages"`
	ByLanguage       map[string]int `json:"sessions_by_language"`
	OldestSessionAge time.Duration  `json:"oldest_session_age"`
}

// SessionStore owns all session state. Expired sessions are logically absent:
// any read path deletes them and reports not-found.
type SessionStore interface {
	Create(language string, level model.ReadingLevel) *model.Session
	// Get returns a deep copy and bumps last-activity.
	Get(id string) (*model.Session, error)
	// Update merges the patch into the stored session.
	Update(id string, patch SessionPatch) error
	// Apply runs fn on the live session under the store lock. fn must not
	// block; its error aborts the mutation and is returned as-is.
	Apply(id string, fn func(*model.Session) error) error
	Reset(id, language string, level model.ReadingLevel) error
	Delete(id string) bool
	Stats() SessionStats
}
