package translatable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-translatable/pkg/document"
	"golang.org/x/text/language"
)

var (
	// ErrNoLanguages indicates an empty configured language set.
	ErrNoLanguages = errors.New("translatable: at least one language must be configured")
	// ErrInvalidLanguage indicates a configured code that is not a valid
	// BCP 47 language tag.
	ErrInvalidLanguage = errors.New("translatable: invalid language code")
	// ErrDefaultLanguage indicates a default language outside the configured
	// set.
	ErrDefaultLanguage = errors.New("translatable: default language must be a configured language")
)

// normalizeLanguage canonicalises a code through BCP 47 parsing, returning
// ok=false for empty or unparseable input. Comparisons throughout the
// package happen on the normalised form.
func normalizeLanguage(code string) (string, bool) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", false
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", false
	}
	return strings.ToLower(tag.String()), true
}

// languageSet holds the configured codes in declaration order. The set is
// fixed at augmentation time; only the default/active selection moves.
type languageSet struct {
	codes []string
	index map[string]struct{}
}

func newLanguageSet(codes []string) (*languageSet, error) {
	if len(codes) == 0 {
		return nil, ErrNoLanguages
	}
	set := &languageSet{index: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		normalized, ok := normalizeLanguage(code)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
		}
		if _, exists := set.index[normalized]; exists {
			continue
		}
		set.index[normalized] = struct{}{}
		set.codes = append(set.codes, normalized)
	}
	return set, nil
}

func (s *languageSet) contains(code string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[code]
	return ok
}

func (s *languageSet) list() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.codes...)
}

// Accept reports whether code is a non-empty member of the configured set.
func (s *Schema) Accept(code string) bool {
	normalized, ok := normalizeLanguage(code)
	return ok && s.langs.contains(normalized)
}

// Languages returns the configured codes in declaration order.
func (s *Schema) Languages() []string {
	return s.langs.list()
}

// DefaultLanguage returns the current schema default language.
func (s *Schema) DefaultLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.def
}

// ActiveLanguage returns the schema-wide active language, "" when none is
// selected.
func (s *Schema) ActiveLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// resolveLanguage picks the language governing one access, in order of
// precedence: instance override, rule resolver, schema-wide active
// language, configured default.
func (s *Schema) resolveLanguage(doc *document.Document) (string, string) {
	if doc != nil {
		if raw, ok := doc.Local(languageLocal); ok {
			if code, ok := raw.(string); ok && code != "" {
				return code, LanguageSourceOverride
			}
		}
	}
	if code, ok := s.ruleLanguage(doc); ok {
		return code, LanguageSourceRule
	}
	s.mu.RLock()
	active, def := s.active, s.def
	s.mu.RUnlock()
	if active != "" {
		return active, LanguageSourceActive
	}
	return def, LanguageSourceDefault
}
