package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		sessionsCreated,
		messagesProcessed,
		safetyBlocks,
		rateLimitHits,
		cacheLookups,
		pipelineErrors,
	)
}

var (
	sessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Sessions created, per language.",
		},
		[]string{"language"},
	)

	messagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_processed_total",
			Help: "Chat turns completed, per detected intent and serving backend.",
		},
		[]string{"intent", "backend"},
	)

	safetyBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_blocks_total",
			Help: "Messages refused by the safety screen, per flag.",
		},
		[]string{"flag"},
	)

	rateLimitHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Turns rejected because the session exceeded its request quota.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_lookups_total",
			Help: "Response cache lookups, per outcome ('hit', 'miss').",
		},
		[]string{"outcome"},
	)

	pipelineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_errors_total",
			Help: "Turn failures, per stage.",
		},
		[]string{"stage"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func SessionCreated(language string)      { sessionsCreated.WithLabelValues(norm(language)).Inc() }
func MessageProcessed(intent, backend string) {
	messagesProcessed.WithLabelValues(norm(intent), norm(backend)).Inc()
}
func SafetyBlocked(flag string) { safetyBlocks.WithLabelValues(norm(flag)).Inc() }
func RateLimited()              { rateLimitHits.Inc() }
func CacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(outcome).Inc()
}
func PipelineError(stage string) { pipelineErrors.WithLabelValues(norm(stage)).Inc() }

func IncSafetyFlags(flags []string) {
	for _, f := range flags {
		SafetyBlocked(f)
	}
}
