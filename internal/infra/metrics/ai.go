package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiCallsLatencyMs,
		aiRetries,
		aiFallbacks,
		aiTokensEstimated,
	)
}

var (
	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 20000},
		},
		[]string{"backend", "model", "success"},
	)

	aiRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_retries_total",
			Help: "Backend call retries after a transient failure.",
		},
		[]string{"backend", "model"},
	)

	aiFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "Turns answered with the localized fallback after retries ran out.",
		},
		[]string{"backend", "model"},
	)

	aiTokensEstimated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_estimated_total",
			Help: "Estimated tokens exchanged per backend/model and direction.",
		},
		[]string{"backend", "model", "direction"},
	)
)

func ObserveAICall(backend, model string, latencyMs int, success bool) {
	aiCallsLatencyMs.WithLabelValues(norm(backend), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func AIRetry(backend, model string)    { aiRetries.WithLabelValues(norm(backend), norm(model)).Inc() }
func AIFallback(backend, model string) { aiFallbacks.WithLabelValues(norm(backend), norm(model)).Inc() }

func AddTokens(backend, model, direction string, n int) {
	aiTokensEstimated.WithLabelValues(norm(backend), norm(model), norm(direction)).Add(float64(n))
}
