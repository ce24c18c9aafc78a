// Package safety screens user messages before any model call and assigns a
// coarse topic intent. Both stages are pure functions over the message text
// plus optional recent-message context.
package safety

import (
	"regexp"
	"strings"
)

type Flag string

const (
	// FlagBlocked is the hard verdict: no intent is computed and no backend
	// call is made.
	FlagBlocked Flag = "blocked"
	// FlagNeedsReview marks warning-pattern matches that are not
	// categorically blocked.
	FlagNeedsReview Flag = "needs_review"
	// FlagBlockedContext is a softer signal raised when a critical pattern
	// appears in recent context; the router escalates backend selection.
	FlagBlockedContext Flag = "blocked_context"
	// FlagLowConfidence marks excessive word repetition (spam/abuse
	// heuristic).
	FlagLowConfidence Flag = "low_confidence"
)

type Intent string

const (
	IntentEmergency      Intent = "emergency"
	IntentAssaultSupport Intent = "assault_support"
	IntentConsent        Intent = "consent"
	IntentHIVPrevention  Intent = "HIV_prevention"
	IntentContraception  Intent = "contraception"
	IntentPregnancy      Intent = "pregnancy"
	IntentSTIInfo        Intent = "STI_info"
	IntentMentalHealth   Intent = "mental_health"
	IntentPuberty        Intent = "puberty"
	IntentRelationships  Intent = "relationships"
	IntentLGBTQ          Intent = "LGBTQ"
	IntentBasicInfo      Intent = "basic_info"
)

// criticalBlockedPatterns short-circuit to a blocked verdict. Ordered most
// severe first; kept specific to avoid false positives on educational wording.
var criticalBlockedPatterns = compileAll([]string{
	// Illegal/harmful content
	`\b(child\s*(porn|abuse|exploitation|sexual))\b`,
	`\b(pedo|pedophile|ephebophile)\b`,
	`\b(incest|bestiality|zoophilia|beastiality)\b`,
	`\b(snuff|necrophilia|zoosadism)\b`,
	// Violence/threats
	`\b(kill\s+(yourself|myself|himself|herself|themselves|you|me|him|her|them))\b`,
	`\b(commit\s+suicide|end\s+my\s+life|end\s+your\s+life)\b`,
	`\b(murder|execute|torture|bomb|terrorist|terrorism)\b`,
	// Hate speech
	`\b(nigger|faggot|retard|cunt|whore|slut)\b`,
	// Human trafficking
	`\b(human\s+trafficking|sex\s+trafficking|grooming\s+for\s+sex)\b`,
})

// warningPatterns need review but are not blocked outright.
var warningPatterns = compileAll([]string{
	`\b(drug|drugs|overdose|narcotic)\b`,
	`\b(self-harm|self\s+harm|cutting|burning)\b`,
})

type intentPattern struct {
	re     *regexp.Regexp
	intent Intent
}

// intentPatterns is evaluated in order, first match wins. Crisis and support
// topics outrank informational ones because routing uses the intent to decide
// whether to engage the more careful backend.
var intentPatterns = []intentPattern{
	// Emergency/Crisis (highest priority)
	{re(`\b(emergency|urgent|crisis|help\s+now|immediate\s+help|911)\b`), IntentEmergency},
	{re(`\b(call\s+(police|ambulance|doctor|help)|contact\s+authorities)\b`), IntentEmergency},

	// Assault/Abuse Support
	{re(`\b(rape|raped|assault|abused|molested|violated|hurt\s+me)\b`), IntentAssaultSupport},
	{re(`\b(sexual\s+(assault|abuse|violence|harassment))\b`), IntentAssaultSupport},
	{re(`\b(was\s+(raped|assaulted|abused|violated))\b`), IntentAssaultSupport},
	{re(`\b(forced\s+(me|to|into)|against\s+my\s+will)\b`), IntentAssaultSupport},

	// Consent
	{re(`\b(consent|permission|agree|say\s+no|say\s+yes)\b`), IntentConsent},
	{re(`\b(can\s+i\s+say\s+no|do\s+i\s+have\s+to|forced)\b`), IntentConsent},
	{re(`\b(boundaries|personal\s+boundaries|set\s+boundaries)\b`), IntentConsent},

	// HIV Prevention
	{re(`\b(hiv|aids|h\.i\.v\.|human\s+immunodeficiency)\b`), IntentHIVPrevention},
	{re(`\b(prevent\s+hiv|hiv\s+prevention|protect\s+from\s+hiv)\b`), IntentHIVPrevention},
	{re(`\b(hiv\s+test|get\s+tested|hiv\s+transmission)\b`), IntentHIVPrevention},

	// Contraception
	{re(`\b(contracept|birth\s+control|condom|pregnancy\s+prevention)\b`), IntentContraception},
	{re(`\b(pill|iud|implant|injection|patch|ring)\b`), IntentContraception},
	{re(`\b(prevent\s+pregnancy|not\s+get\s+pregnant|avoid\s+pregnancy)\b`), IntentContraception},

	// Pregnancy
	{re(`\b(pregnant|pregnancy|expecting|baby|test\s+positive)\b`), IntentPregnancy},
	{re(`\b(missed\s+period|late\s+period|am\s+i\s+pregnant)\b`), IntentPregnancy},

	// STIs
	{re(`\b(sti|std|sexually\s+transmitted|chlamydia|gonorrhea|herpes)\b`), IntentSTIInfo},
	{re(`\b(get\s+tested|sti\s+test|std\s+test|screening)\b`), IntentSTIInfo},

	// Mental Health
	{re(`\b(depressed|depression|anxious|anxiety|suicidal|want\s+to\s+die)\b`), IntentMentalHealth},
	{re(`\b(self-harm|cutting|hurting\s+myself|feel\s+hopeless)\b`), IntentMentalHealth},
	{re(`\b(counselor|therapy|therapist|need\s+help)\b`), IntentMentalHealth},

	// Puberty/Body Changes
	{re(`\b(puberty|period|menstruation|menstrual|menarche)\b`), IntentPuberty},
	{re(`\b(body\s+changes|growing|development|voice\s+change)\b`), IntentPuberty},

	// Relationships
	{re(`\b(relationship|dating|boyfriend|girlfriend|breakup)\b`), IntentRelationships},
	{re(`\b(like\s+someone|crush|attraction|love)\b`), IntentRelationships},

	// LGBTQ+
	{re(`\b(gay|lesbian|bisexual|transgender|lgbtq|lgb|queer)\b`), IntentLGBTQ},
	{re(`\b(coming\s+out|sexual\s+orientation|gender\s+identity)\b`), IntentLGBTQ},
}

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, re(p))
	}
	return out
}

// contextWindow is how many trailing context messages the blocked-context
// check concatenates.
const contextWindow = 3

// repetitionThreshold: a single word above this share of the message flags it
// as low confidence.
const repetitionThreshold = 0.3

// Check screens a message and returns its safety flags. A critical pattern
// match returns exactly [blocked] and computes nothing further.
func Check(message string, context []string) []Flag {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, p := range criticalBlockedPatterns {
		if p.MatchString(lower) {
			return []Flag{FlagBlocked}
		}
	}

	var flags []Flag
	for _, p := range warningPatterns {
		if p.MatchString(lower) {
			flags = append(flags, FlagNeedsReview)
			break
		}
	}

	if len(context) > 0 {
		recent := context
		if len(recent) > contextWindow {
			recent = recent[len(recent)-contextWindow:]
		}
		joined := strings.ToLower(strings.Join(recent, " "))
		for _, p := range criticalBlockedPatterns {
			if p.MatchString(joined) {
				flags = append(flags, FlagBlockedContext)
				break
			}
		}
	}

	if words := strings.Fields(lower); len(words) > 0 {
		freq := make(map[string]int, len(words))
		max := 0
		for _, w := range words {
			freq[w]++
			if freq[w] > max {
				max = freq[w]
			}
		}
		if float64(max) > float64(len(words))*repetitionThreshold {
			flags = append(flags, FlagLowConfidence)
		}
	}

	return flags
}

// Blocked reports whether flags contain the hard verdict.
func Blocked(flags []Flag) bool {
	for _, f := range flags {
		if f == FlagBlocked {
			return true
		}
	}
	return false
}

// Has reports whether flags contain the given flag.
func Has(flags []Flag, flag Flag) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ClassifyIntent assigns the first matching intent label, or basic_info.
// Only meaningful for messages that are not hard-blocked.
func ClassifyIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, ip := range intentPatterns {
		if ip.re.MatchString(lower) {
			return ip.intent
		}
	}
	return IntentBasicInfo
}

// Sensitive intents force the higher-capability backend and a lower sampling
// temperature.
func Sensitive(intent Intent) bool {
	switch intent {
	case IntentEmergency, IntentAssaultSupport, IntentConsent:
		return true
	}
	return intent == "crisis"
}

// Strings converts flags for storage in session state.
func Strings(flags []Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}
