package translatable

import (
	"github.com/goliatone/go-translatable/internal/payload"
	"github.com/goliatone/go-translatable/pkg/document"
)

func (s *Schema) installAggregate() error {
	return s.model.AddVirtual(AggregateField, s.readTranslations, s.replaceTranslations)
}

// readTranslations builds the full language-to-field map. Every configured
// language and every marked field appears in the output, nil when no overlay
// entry exists; the default-language entry mirrors the base field values.
func (s *Schema) readTranslations(doc *document.Document) any {
	def := s.DefaultLanguage()
	out := make(map[string]map[string]any, len(s.langs.codes))
	for _, lang := range s.langs.list() {
		entry := make(map[string]any, len(s.fields))
		for _, field := range s.fields {
			if lang == def {
				entry[field.Name] = doc.RawGet(field.Name)
				continue
			}
			entry[field.Name] = doc.RawGet(overlayPath(lang, field.Name))
		}
		out[lang] = entry
	}
	return out
}

// replaceTranslations accepts the same shape readTranslations produces. The
// default-language entry is written field by field into the base slots and
// dropped; the remainder replaces the overlay wholesale. Unknown languages
// and unmarked fields are discarded. Malformed payloads are a no-op and the
// current view is returned unchanged.
func (s *Schema) replaceTranslations(doc *document.Document, value any) any {
	translations, err := payload.Normalize(value)
	if err != nil {
		return s.readTranslations(doc)
	}

	def := s.DefaultLanguage()
	overlay := map[string]any{}
	for lang, entry := range translations {
		normalized, ok := normalizeLanguage(lang)
		if !ok || !s.langs.contains(normalized) {
			continue
		}
		if normalized == def {
			for _, field := range s.fields {
				if fieldValue, ok := entry[field.Name]; ok {
					doc.RawSet(field.Name, fieldValue)
					doc.MarkChanged(field.Name)
				}
			}
			continue
		}
		fields := make(map[string]any, len(entry))
		for _, field := range s.fields {
			if fieldValue, ok := entry[field.Name]; ok {
				fields[field.Name] = fieldValue
			}
		}
		overlay[normalized] = fields
	}

	doc.RawSet(OverlayField, overlay)
	doc.MarkChanged(OverlayField)
	s.emitTranslationsReplaced(doc)
	return s.readTranslations(doc)
}

// MergeTranslations folds a partial payload into the existing overlay and
// base slots instead of replacing the overlay wholesale. Unknown languages
// and unmarked fields are discarded; the refreshed aggregate view is
// returned.
func (s *Schema) MergeTranslations(doc *document.Document, value any) any {
	translations, err := payload.Normalize(value)
	if err != nil {
		return s.readTranslations(doc)
	}

	def := s.DefaultLanguage()
	for lang, entry := range translations {
		normalized, ok := normalizeLanguage(lang)
		if !ok || !s.langs.contains(normalized) {
			continue
		}
		for _, field := range s.fields {
			fieldValue, ok := entry[field.Name]
			if !ok {
				continue
			}
			if normalized == def {
				doc.RawSet(field.Name, fieldValue)
				doc.MarkChanged(field.Name)
				continue
			}
			doc.RawSet(overlayPath(normalized, field.Name), fieldValue)
			doc.MarkChanged(OverlayField)
		}
	}
	return s.readTranslations(doc)
}
