package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"somaai-backend/internal/infra/content"
	"somaai-backend/internal/infra/memstore"
	"somaai-backend/internal/usecase"
)

type Server struct {
	sessionUC usecase.SessionUseCase
	chatUC    usecase.ChatUseCase
	lessonUC  usecase.LessonUseCase
	content   *content.Store
	limiter   *memstore.RateLimiter
	languages []string
	apiKey    string
	startedAt time.Time
	log       *zerolog.Logger
}

func NewServer(
	sessionUC usecase.SessionUseCase,
	chatUC usecase.ChatUseCase,
	lessonUC usecase.LessonUseCase,
	cs *content.Store,
	limiter *memstore.RateLimiter,
	languages []string,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		sessionUC: sessionUC,
		chatUC:    chatUC,
		lessonUC:  lessonUC,
		content:   cs,
		limiter:   limiter,
		languages: languages,
		apiKey:    apiKey,
		startedAt: time.Now(),
		log:       &l,
	}
}

// Routes builds the full router: public API, health/metrics, and the admin
// surface behind bearer auth.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.traceMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)

	r.Post("/api/session", s.handleCreateSession)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/lesson", s.handleLesson)
	r.Post("/api/language", s.handleSwitchLanguage)
	r.Get("/api/faq", s.handleFAQ)
	r.Get("/api/faq/search", s.handleFAQSearch)

	r.Get("/api/health", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/admin", func(admin chi.Router) {
		admin.Use(s.authMiddleware)
		admin.Get("/sessions", s.handleAdminSessions)
		admin.Get("/metrics", s.handleAdminMetrics)
	})

	return r
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			writeError(w, http.StatusForbidden, codeUnauthorized, "Forbidden")
			return
		}

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Unauthorized")
			return
		}
		if parts[1] != s.apiKey {
			s.log.Warn().Str("remote", r.RemoteAddr).Msg("unauthorized admin access attempt")
			writeError(w, http.StatusForbidden, codeUnauthorized, "Forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}
