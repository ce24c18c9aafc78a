package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"somaai-backend/internal/domain"
	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/domain/ports/repository"
	"somaai-backend/internal/infra/content"
	"somaai-backend/internal/infra/memstore"
	"somaai-backend/internal/safety"
	"somaai-backend/internal/usecase"
)

const testSessionID = "b2f7c6d4-1111-4222-8333-444455556666"

// --- Mock use cases ---

type mockSessionUC struct {
	createErr error
	switchErr error
}

func (m *mockSessionUC) Create(language, readingLevel string) (*model.Session, string, error) {
	if m.createErr != nil {
		return nil, "", m.createErr
	}
	sess := model.NewSession(testSessionID, language, model.ParseReadingLevel(readingLevel))
	return sess, "Session created. Hello!", nil
}

func (m *mockSessionUC) SwitchLanguage(sessionID, language string) (string, error) {
	if m.switchErr != nil {
		return "", m.switchErr
	}
	return "Language changed.", nil
}

func (m *mockSessionUC) Get(sessionID string) (*model.Session, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSessionUC) Delete(sessionID string) bool { return false }

func (m *mockSessionUC) Stats() repository.SessionStats {
	return repository.SessionStats{ActiveSessions: 2, TotalMessages: 7, ByLanguage: map[string]int{"en": 2}}
}

type mockChatUC struct {
	err error
}

func (m *mockChatUC) SendMessage(ctx context.Context, sessionID, message, language string) (*usecase.ChatResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &usecase.ChatResult{
		AnswerSimple:   "Simple answer.",
		AnswerDetailed: "Detailed answer.",
		ModelUsed:      "mistralai/mistral-nemo:free",
		Backend:        "standard",
		Confidence:     0.85,
		Intent:         safety.IntentBasicInfo,
		ReadingLevel:   model.ReadingSimple,
	}, nil
}

type mockLessonUC struct {
	err error
}

func (m *mockLessonUC) Generate(ctx context.Context, sessionID, topic string) (*model.Lesson, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return model.PlaceholderLesson(topic), "meta-llama/llama-3.3-70b-instruct:free", nil
}

func newTestServer(t *testing.T, sessUC *mockSessionUC, chatUC *mockChatUC, lessonUC *mockLessonUC) *Server {
	t.Helper()
	logger := zerolog.Nop()
	langs := []string{"en", "fr", "pt", "es", "sw", "hi"}
	cs, err := content.NewStore(content.LocalesFS, t.TempDir(), langs, &logger)
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(sessUC, chatUC, lessonUC, cs,
		memstore.NewRateLimiter(60, time.Minute), langs, "test-admin-key", &logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateSessionHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockSessionUC{}, &mockChatUC{}, &mockLessonUC{})
	h := srv.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/session", map[string]string{
		"language": "en", "reading_level": "simple",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != testSessionID || resp.Message == "" {
		t.Errorf("resp = %+v", resp)
	}

	// missing language fails validation
	rec = doJSON(t, h, http.MethodPost, "/api/session", map[string]string{"reading_level": "simple"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing language: status = %d, want 400", rec.Code)
	}

	// unsupported language maps to invalid_input
	srv2 := newTestServer(t, &mockSessionUC{createErr: domain.ErrUnsupportedLanguage}, &mockChatUC{}, &mockLessonUC{})
	rec = doJSON(t, srv2.Routes(), http.MethodPost, "/api/session", map[string]string{"language": "zz"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported language: status = %d, want 400", rec.Code)
	}
}

func TestChatHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockSessionUC{}, &mockChatUC{}, &mockLessonUC{})
	h := srv.Routes()

	body := map[string]string{"session_id": testSessionID, "message": "What is HIV?"}
	rec := doJSON(t, h, http.MethodPost, "/api/chat", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AnswerSimple == "" || resp.AnswerDetailed == "" || resp.Intent == "" {
		t.Errorf("resp = %+v", resp)
	}

	// malformed session id rejected before the use case runs
	rec = doJSON(t, h, http.MethodPost, "/api/chat", map[string]string{
		"session_id": "nope", "message": "hello",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad session id: status = %d, want 400", rec.Code)
	}
}

func TestChatHandlerErrorMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
		{"safety blocked", domain.ErrSafetyBlocked, http.StatusForbidden, codeSafetyBlocked},
		{"not found", domain.ErrNotFound, http.StatusNotFound, codeNotFound},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, codeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &mockSessionUC{}, &mockChatUC{err: tc.err}, &mockLessonUC{})
			rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/chat", map[string]string{
				"session_id": testSessionID, "message": "hello",
			})
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tc.wantCode)
			}
			if tc.err == domain.ErrRateLimited && resp.RetryAfter != 60 {
				t.Errorf("retry_after = %d, want 60", resp.RetryAfter)
			}
		})
	}
}

func TestLessonHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockSessionUC{}, &mockChatUC{}, &mockLessonUC{})

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/lesson", map[string]string{
		"session_id": testSessionID, "topic": "puberty",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp lessonResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Lesson == nil || resp.Lesson.Title != "puberty" || resp.ModelUsed == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestFAQHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockSessionUC{}, &mockChatUC{}, &mockLessonUC{})
	h := srv.Routes()

	rec := doJSON(t, h, http.MethodGet, "/api/faq", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got == "" || got[0] != '[' {
		t.Errorf("expected JSON array, got %q", got)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/faq?lang=zz", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported language: status = %d, want 400", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockSessionUC{}, &mockChatUC{}, &mockLessonUC{})
	h := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/sessions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong token: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/sessions", nil)
	req.Header.Set("Authorization", "Bearer test-admin-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", rec.Code)
	}
	var stats repository.SessionStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.ActiveSessions != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHealthAndTraceHeader(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockSessionUC{}, &mockChatUC{}, &mockLessonUC{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Trace-Id") == "" {
		t.Error("trace id header missing")
	}
}
