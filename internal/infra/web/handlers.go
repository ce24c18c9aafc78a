package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"

	"somaai-backend/internal/domain/model"
	"somaai-backend/internal/infra/content"
)

var validate = validator.New()

type sessionRequest struct {
	Language     string `json:"language" validate:"required,min=2,max=8"`
	ReadingLevel string `json:"reading_level" validate:"omitempty,max=16"`
}

type sessionResponse struct {
	SessionID    string `json:"session_id"`
	Language     string `json:"language"`
	ReadingLevel string `json:"reading_level"`
	Message      string `json:"message"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, welcome, err := s.sessionUC.Create(req.Language, req.ReadingLevel)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:    sess.ID,
		Language:     sess.Language,
		ReadingLevel: string(sess.ReadingLevel),
		Message:      welcome,
	})
}

type chatRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Message   string `json:"message" validate:"required,min=1,max=2000"`
	Language  string `json:"language" validate:"omitempty,min=2,max=8"`
}

type chatResponse struct {
	AnswerSimple   string  `json:"answer_simple"`
	AnswerDetailed string  `json:"answer_detailed"`
	ModelUsed      string  `json:"model_used"`
	Confidence     float64 `json:"confidence"`
	ReadingLevel   string  `json:"reading_level"`
	Intent         string  `json:"intent"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.chatUC.SendMessage(r.Context(), req.SessionID, req.Message, req.Language)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		AnswerSimple:   res.AnswerSimple,
		AnswerDetailed: res.AnswerDetailed,
		ModelUsed:      res.ModelUsed,
		Confidence:     res.Confidence,
		ReadingLevel:   string(res.ReadingLevel),
		Intent:         string(res.Intent),
	})
}

type lessonRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Topic     string `json:"topic" validate:"required,min=1,max=200"`
}

type lessonResponse struct {
	Lesson    *model.Lesson `json:"lesson"`
	ModelUsed string        `json:"model_used"`
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if !s.decode(w, r, &req) {
		return
	}

	lesson, modelUsed, err := s.lessonUC.Generate(r.Context(), req.SessionID, req.Topic)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lessonResponse{Lesson: lesson, ModelUsed: modelUsed})
}

type languageRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Language  string `json:"language" validate:"required,min=2,max=8"`
}

func (s *Server) handleSwitchLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !s.decode(w, r, &req) {
		return
	}

	msg, err := s.sessionUC.SwitchLanguage(req.SessionID, req.Language)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleFAQ(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	if !s.languageAllowed(lang) {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Unsupported language")
		return
	}
	entries := s.content.FAQ(lang)
	if entries == nil {
		entries = []content.FAQEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleFAQSearch(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	if !s.languageAllowed(lang) {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Unsupported language")
		return
	}
	query := r.URL.Query().Get("q")
	entry, ok := s.content.SearchFAQ(lang, query)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "entry": entry})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionUC.Stats())
}

func (s *Server) handleAdminMetrics(w http.ResponseWriter, r *http.Request) {
	stats := s.sessionUC.Stats()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":  int(time.Since(s.startedAt).Seconds()),
		"active_sessions": stats.ActiveSessions,
		"total_messages":  stats.TotalMessages,
		"goroutines":      runtime.NumGoroutine(),
		"heap_bytes":      mem.HeapAlloc,
	})
}

// decode parses and validates a JSON request body; on failure it writes the
// error response and reports false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "Invalid request: "+err.Error())
		return false
	}
	return true
}

func (s *Server) languageAllowed(lang string) bool {
	for _, l := range s.languages {
		if l == lang {
			return true
		}
	}
	return false
}
