package model

// MythFact pairs a common misconception with the evidence-based correction.
type MythFact struct {
	Myth string `json:"myth"`
	Fact string `json:"fact"`
}

// Lesson is the structured document produced by one-shot lesson generation.
type Lesson struct {
	Title       string     `json:"title"`
	Intro       string     `json:"intro"`
	KeyPoints   []string   `json:"key_points"`
	MythsVFacts []MythFact `json:"myths_vs_facts"`
	Summary     string     `json:"summary"`
	Resources   []string   `json:"resources"`
}

// Repair fills missing required fields with deterministic defaults so a
// partially valid backend response still yields a usable document.
func (l *Lesson) Repair(topic string) {
	if l.Title == "" {
		l.Title = topic
	}
	if l.KeyPoints == nil {
		l.KeyPoints = []string{}
	}
	if l.MythsVFacts == nil {
		l.MythsVFacts = []MythFact{}
	}
	if l.Resources == nil {
		l.Resources = []string{}
	}
}

// PlaceholderLesson is returned when the backend output cannot be parsed.
func PlaceholderLesson(topic string) *Lesson {
	return &Lesson{
		Title: topic,
		Intro: "This lesson covers important information about " + topic + ".",
		KeyPoints: []string{
			"Please check our FAQ section for detailed information.",
			"Feel free to ask specific questions in the chat.",
		},
		MythsVFacts: []MythFact{},
		Summary:     "For more information, please use our chat feature or browse our FAQ.",
		Resources:   []string{},
	}
}
