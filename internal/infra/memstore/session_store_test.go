package memstore

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"somaai-backend/internal/domain"
	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/domain/ports/repository"
)

func newTestStore(ttl time.Duration) (*SessionStore, *time.Time) {
	logger := zerolog.Nop()
	s := NewSessionStore(ttl, 5*time.Minute, &logger)
	now := time.Now()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestSessionStoreCreateGet(t *testing.T) {
	s, _ := newTestStore(4 * time.Hour)

	sess := s.Create("en", model.ReadingSimple)
	if sess.ID == "" {
		t.Fatal("expected generated id")
	}
	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Language != "en" || got.ReadingLevel != model.ReadingSimple {
		t.Fatalf("unexpected session %+v", got)
	}

	// Returned sessions are copies; mutating them must not touch the store.
	got.History = append(got.History, model.Turn{Role: model.RoleUser, Content: "hi"})
	again, _ := s.Get(sess.ID)
	if len(again.History) != 0 {
		t.Fatal("caller mutation leaked into store")
	}
}

func TestSessionStoreTTLExpiry(t *testing.T) {
	s, now := newTestStore(4 * time.Hour)
	sess := s.Create("en", model.ReadingSimple)

	*now = now.Add(4*time.Hour + time.Second)

	if _, err := s.Get(sess.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
	// Physically removed: absent from stats too.
	if st := s.Stats(); st.ActiveSessions != 0 {
		t.Fatalf("expired session still counted: %+v", st)
	}
}

func TestSessionStoreUpdateMerge(t *testing.T) {
	s, _ := newTestStore(4 * time.Hour)
	sess := s.Create("en", model.ReadingSimple)

	lang := "fr"
	counters := model.Counters{Messages: 3, AIResponses: 3, Tokens: 120}
	err := s.Update(sess.ID, repository.SessionPatch{
		Language: &lang,
		Counters: &counters,
		History:  []model.Turn{{Role: model.RoleUser, Content: "bonjour"}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := s.Get(sess.ID)
	if got.Language != "fr" {
		t.Fatalf("language not merged: %q", got.Language)
	}
	if got.ReadingLevel != model.ReadingSimple {
		t.Fatal("untouched field overwritten")
	}
	if got.Counters.Messages != 3 || len(got.History) != 1 {
		t.Fatalf("merge incomplete: %+v", got)
	}
}

func TestSessionStoreUpdateAfterDelete(t *testing.T) {
	s, _ := newTestStore(4 * time.Hour)
	sess := s.Create("en", model.ReadingSimple)
	if !s.Delete(sess.ID) {
		t.Fatal("Delete returned false for existing session")
	}
	lang := "es"
	if err := s.Update(sess.ID, repository.SessionPatch{Language: &lang}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Delete(sess.ID) {
		t.Fatal("Delete returned true for missing session")
	}
}

func TestSessionStoreApplyAtomic(t *testing.T) {
	s, _ := newTestStore(4 * time.Hour)
	sess := s.Create("en", model.ReadingSimple)

	err := s.Apply(sess.ID, func(live *model.Session) error {
		live.AddTurn(model.RoleUser, "hello")
		live.Counters.Messages++
		return nil
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, _ := s.Get(sess.ID)
	if got.Counters.Messages != 1 || len(got.History) != 1 {
		t.Fatalf("apply not visible: %+v", got)
	}

	sentinel := errors.New("abort")
	if err := s.Apply(sess.ID, func(*model.Session) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("fn error not propagated: %v", err)
	}
}

func TestSessionStoreReset(t *testing.T) {
	s, now := newTestStore(4 * time.Hour)
	sess := s.Create("en", model.ReadingSimple)
	_ = s.Apply(sess.ID, func(live *model.Session) error {
		live.AddTurn(model.RoleUser, "hello")
		live.Counters.Messages = 5
		return nil
	})

	*now = now.Add(time.Hour)
	if err := s.Reset(sess.ID, "sw", model.ReadingDetailed); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ := s.Get(sess.ID)
	if got.ID != sess.ID {
		t.Fatal("reset must preserve id")
	}
	if got.Language != "sw" || got.ReadingLevel != model.ReadingDetailed {
		t.Fatalf("reset fields wrong: %+v", got)
	}
	if len(got.History) != 0 || got.Counters.Messages != 0 {
		t.Fatal("reset must clear history and counters")
	}
	if !got.CreatedAt.Equal(*now) {
		t.Fatal("reset must restart the TTL clock")
	}
}

func TestSessionStoreStats(t *testing.T) {
	s, now := newTestStore(4 * time.Hour)
	a := s.Create("en", model.ReadingSimple)
	*now = now.Add(time.Minute)
	s.Create("fr", model.ReadingSimple)
	_ = s.Apply(a.ID, func(live *model.Session) error {
		live.Counters.Messages = 7
		return nil
	})

	st := s.Stats()
	if st.ActiveSessions != 2 {
		t.Fatalf("active = %d", st.ActiveSessions)
	}
	if st.TotalMessages != 7 {
		t.Fatalf("messages = %d", st.TotalMessages)
	}
	if st.ByLanguage["en"] != 1 || st.ByLanguage["fr"] != 1 {
		t.Fatalf("language counts %+v", st.ByLanguage)
	}
	if st.OldestSessionAge != time.Minute {
		t.Fatalf("oldest age = %v", st.OldestSessionAge)
	}
}
