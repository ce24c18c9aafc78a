// Package readability adapts answer text to a session's reading-level
// preference using deterministic word substitution and sentence splitting.
package readability

import (
	"regexp"
	"strings"

	"somaai-backend/internal/domain/model"
)

type replacement struct {
	re   *regexp.Regexp
	with string
}

// Complex-to-plain substitutions applied for the "simple" level.
var replacements = []replacement{
	{regexp.MustCompile(`(?i)\butilize\b`), "use"},
	{regexp.MustCompile(`(?i)\bapproximately\b`), "about"},
	{regexp.MustCompile(`(?i)\bconsequently\b`), "so"},
	{regexp.MustCompile(`(?i)\bfurthermore\b`), "also"},
	{regexp.MustCompile(`(?i)\bnevertheless\b`), "but"},
	{regexp.MustCompile(`(?i)\bhowever\b`), "but"},
	{regexp.MustCompile(`(?i)\balthough\b`), "but"},
	{regexp.MustCompile(`(?i)\bregarding\b`), "about"},
	{regexp.MustCompile(`(?i)\bpreviously\b`), "before"},
	{regexp.MustCompile(`(?i)\binitially\b`), "first"},
	{regexp.MustCompile(`(?i)\bfrequently\b`), "often"},
	{regexp.MustCompile(`(?i)\boccasionally\b`), "sometimes"},
	{regexp.MustCompile(`(?i)\bessential\b`), "important"},
	{regexp.MustCompile(`(?i)\bnecessary\b`), "needed"},
	{regexp.MustCompile(`(?i)\bsignificant\b`), "important"},
	{regexp.MustCompile(`(?i)\bconsiderable\b`), "a lot of"},
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)
	commaSplit    = regexp.MustCompile(`,\s+`)
)

const longSentence = 100

// enrichCeiling: answers already longer than this are left as-is for the
// detailed level.
const enrichCeiling = 500

// Adapt rewrites answer for the given reading level. Unknown levels pass
// through unchanged.
func Adapt(answer string, level model.ReadingLevel) string {
	if answer == "" {
		return answer
	}
	switch level {
	case model.ReadingSimple:
		return simplify(answer)
	case model.ReadingDetailed:
		return enrich(answer)
	default:
		return answer
	}
}

func simplify(text string) string {
	simplified := text
	for _, r := range replacements {
		simplified = r.re.ReplaceAllString(simplified, r.with)
	}

	// Break very long sentences at commas.
	sentences := sentenceSplit.Split(simplified, -1)
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if len(s) <= longSentence {
			out = append(out, s)
			continue
		}
		parts := commaSplit.Split(s, -1)
		if len(parts) == 1 {
			out = append(out, s)
			continue
		}
		for i, p := range parts {
			if i < len(parts)-1 {
				p += ","
			}
			out = append(out, p)
		}
	}
	return strings.Join(out, ". ")
}

// enrich is intentionally conservative: shorter answers pass through and the
// detailed rendition relies on the backend's own verbosity.
func enrich(text string) string {
	if len(text) > enrichCeiling {
		return text
	}
	return text
}
