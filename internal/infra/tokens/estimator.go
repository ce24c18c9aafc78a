// Package tokens estimates token counts for usage accounting. Estimates feed
// session counters and request sizing; they do not need to match the billing
// meter of any particular backend exactly.
package tokens

import (
	"github.com/pkoukk/tiktoken-go"

	"somaai-backend/internal/domain/ports/adapter"
)

// Estimator counts tokens using the cl100k_base encoding. When the encoding
// cannot be loaded it falls back to a bytes/4 heuristic.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

func NewEstimator() *Estimator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Estimator{}
	}
	return &Estimator{enc: enc}
}

func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	if e.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}

// CountMessages sums message contents plus a small per-message overhead for
// role framing.
func (e *Estimator) CountMessages(messages []adapter.Message) int {
	total := 0
	for _, m := range messages {
		total += e.Count(m.Content) + 4
	}
	return total
}
