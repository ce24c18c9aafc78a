// Package content serves localized static lookups: system prompts, welcome
// and fallback strings (embedded), plus FAQ entries and glossary term maps
// loaded from a data directory with hot reload.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

const fallbackLang = "en"

type locale struct {
	SystemPrompt    string `yaml:"system_prompt"`
	Welcome         string `yaml:"welcome"`
	LanguageChanged string `yaml:"language_changed"`
	Fallback        string `yaml:"fallback"`
}

// FAQEntry is one question/answer pair.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Store holds all localized content. Locales come from the embedded
// filesystem; FAQ and glossary files live in dataDir and are reloaded when
// they change.
type Store struct {
	mu         sync.RWMutex
	locales    map[string]locale
	glossaries map[string]map[string]string
	faqs       map[string][]FAQEntry
	dataDir    string
	log        *zerolog.Logger
}

func NewStore(fsys fs.FS, dataDir string, langs []string, logger *zerolog.Logger) (*Store, error) {
	l := logger.With().Str("component", "ContentStore").Logger()
	s := &Store{
		locales:    make(map[string]locale),
		glossaries: make(map[string]map[string]string),
		faqs:       make(map[string][]FAQEntry),
		dataDir:    dataDir,
		log:        &l,
	}
	for _, lang := range langs {
		data, err := fs.ReadFile(fsys, "locales/"+lang+".yaml")
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", lang, err)
		}
		var loc locale
		if err := yaml.Unmarshal(data, &loc); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", lang, err)
		}
		s.locales[lang] = loc
	}
	if _, ok := s.locales[fallbackLang]; !ok {
		return nil, fmt.Errorf("fallback locale %q missing", fallbackLang)
	}
	s.reloadData()
	return s, nil
}

func (s *Store) locale(lang string) locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if loc, ok := s.locales[lang]; ok {
		return loc
	}
	return s.locales[fallbackLang]
}

// SystemPrompt renders the localized system prompt for a reading level.
func (s *Store) SystemPrompt(lang, readingLevel string) string {
	return strings.ReplaceAll(s.locale(lang).SystemPrompt, "{reading_level}", readingLevel)
}

func (s *Store) Welcome(lang string) string         { return s.locale(lang).Welcome }
func (s *Store) LanguageChanged(lang string) string { return s.locale(lang).LanguageChanged }

// Fallback is the localized apology returned when the backend fails.
func (s *Store) Fallback(lang string) string { return s.locale(lang).Fallback }

// InjectGlossary annotates the first occurrence of each glossary term with
// its definition. Missing glossaries leave the text unchanged.
func (s *Store) InjectGlossary(text, lang string) string {
	s.mu.RLock()
	glossary := s.glossaries[lang]
	s.mu.RUnlock()

	for term, definition := range glossary {
		if strings.Contains(text, term) {
			text = strings.Replace(text, term, term+" ("+definition+")", 1)
		}
	}
	return text
}

// FAQ returns all entries for a language; empty when none are loaded.
func (s *Store) FAQ(lang string) []FAQEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faqs[lang]
}

// SearchFAQ returns the entry whose question contains the query, falling back
// to the entry with the greatest word overlap.
func (s *Store) SearchFAQ(lang, query string) (FAQEntry, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return FAQEntry{}, false
	}

	s.mu.RLock()
	entries := s.faqs[lang]
	s.mu.RUnlock()

	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Question), query) {
			return e, true
		}
	}

	queryWords := make(map[string]struct{})
	for _, w := range strings.Fields(query) {
		queryWords[w] = struct{}{}
	}
	var best FAQEntry
	most := 0
	for _, e := range entries {
		overlap := 0
		for _, w := range strings.Fields(strings.ToLower(e.Question)) {
			if _, ok := queryWords[w]; ok {
				overlap++
			}
		}
		if overlap > most {
			best, most = e, overlap
		}
	}
	return best, most > 0
}

// Watch reloads data files when the directory changes. Blocks until the
// watcher fails or the channel closes; run it in its own goroutine.
func (s *Store) Watch(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(s.dataDir); err != nil {
		return err
	}

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Remove) {
				s.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("content change")
				s.reloadData()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error().Err(err).Msg("content watcher error")
		}
	}
}

// Reload rescans the data directory (exported for tests and admin use).
func (s *Store) Reload() { s.reloadData() }

func (s *Store) reloadData() {
	glossaries := make(map[string]map[string]string)
	faqs := make(map[string][]FAQEntry)

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		// A missing data dir is fine: embedded locales still work.
		s.log.Debug().Err(err).Str("dir", s.dataDir).Msg("no content data dir")
		return
	}
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(s.dataDir, name)
		switch {
		case strings.HasPrefix(name, "glossary_") && strings.HasSuffix(name, ".json"):
			lang := strings.TrimSuffix(strings.TrimPrefix(name, "glossary_"), ".json")
			var g map[string]string
			if err := readJSON(path, &g); err != nil {
				s.log.Warn().Err(err).Str("file", name).Msg("skip glossary file")
				continue
			}
			glossaries[lang] = g
		case strings.HasPrefix(name, "faq_") && strings.HasSuffix(name, ".json"):
			lang := strings.TrimSuffix(strings.TrimPrefix(name, "faq_"), ".json")
			var f []FAQEntry
			if err := readJSON(path, &f); err != nil {
				s.log.Warn().Err(err).Str("file", name).Msg("skip faq file")
				continue
			}
			faqs[lang] = f
		}
	}

	s.mu.Lock()
	s.glossaries = glossaries
	s.faqs = faqs
	s.mu.Unlock()
	s.log.Info().Int("glossaries", len(glossaries)).Int("faqs", len(faqs)).Msg("content loaded")
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
