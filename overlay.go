package translatable

import (
	"strings"

	"github.com/goliatone/go-translatable/pkg/document"
)

// overlayPath addresses one non-default-language value inside the reserved
// overlay slot.
func overlayPath(lang, field string) string {
	return OverlayField + "." + lang + "." + field
}

// isEmptyValue treats nil and blank strings as absent, which is what the
// fallback chain and the new-document backfill key on.
func isEmptyValue(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	default:
		return false
	}
}

// installField rewrites the marked field to carry language-aware get/set
// hooks and installs one direct-access virtual per configured language.
func (s *Schema) installField(marked TranslatedField) error {
	name := marked.Name
	err := s.model.Redeclare(name,
		func(doc *document.Document) any {
			value, _ := s.ResolveField(doc, name)
			return value
		},
		func(doc *document.Document, value any) any {
			return s.writeField(doc, name, value)
		},
	)
	if err != nil {
		return err
	}

	for _, lang := range s.langs.list() {
		lang := lang
		err := s.model.AddVirtual(name+"_"+lang,
			func(doc *document.Document) any {
				return s.readDirect(doc, name, lang)
			},
			func(doc *document.Document, value any) any {
				return s.writeDirect(doc, name, lang, value)
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ResolveField reads a marked field through the fallback chain and reports
// how the value was produced. Reads never fail: a missing translation
// degrades through the per-field fallback language toward the base
// default-language value.
func (s *Schema) ResolveField(doc *document.Document, name string) (any, Trace) {
	requested, langSource := s.resolveLanguage(doc)
	trace := Trace{
		Field:          name,
		Requested:      requested,
		LanguageSource: langSource,
	}
	def := s.DefaultLanguage()

	if requested == "" || requested == def {
		trace.Resolved = def
		trace.Source = SourceBase
		return doc.RawGet(name), trace
	}
	if value := doc.RawGet(overlayPath(requested, name)); !isEmptyValue(value) {
		trace.Resolved = requested
		trace.Source = SourceOverlay
		return value, trace
	}
	if fallback := s.fallbackFor(name); fallback != "" && fallback != requested {
		if value := doc.RawGet(overlayPath(fallback, name)); !isEmptyValue(value) {
			trace.Resolved = fallback
			trace.Source = SourceFallback
			trace.FallbackUsed = true
			return value, trace
		}
	}
	trace.Resolved = def
	trace.Source = SourceBase
	trace.FallbackUsed = true
	return doc.RawGet(name), trace
}

// writeField routes a plain-name write: default language lands in the base
// slot, anything else in the overlay. The return value is the canonical
// default-language content, which is the just-written value only when the
// new-document backfill promoted it.
func (s *Schema) writeField(doc *document.Document, name string, value any) any {
	lang, _ := s.resolveLanguage(doc)
	def := s.DefaultLanguage()

	if lang == "" || lang == def {
		doc.RawSet(name, value)
		doc.MarkChanged(name)
		s.emitFieldChanged(doc, name, def, value)
		return value
	}

	doc.RawSet(overlayPath(lang, name), value)
	doc.MarkChanged(OverlayField)

	canonical := doc.RawGet(name)
	if isEmptyValue(canonical) && doc.IsNew() {
		// promote the first value written on a brand-new document so the
		// default slot never ships empty
		doc.RawSet(name, value)
		doc.MarkChanged(name)
		canonical = value
	}
	s.emitFieldChanged(doc, name, lang, value)
	return canonical
}

// readDirect bypasses the fallback chain entirely: the base slot for the
// default language, the overlay entry otherwise.
func (s *Schema) readDirect(doc *document.Document, name, lang string) any {
	if lang == s.DefaultLanguage() {
		return doc.RawGet(name)
	}
	return doc.RawGet(overlayPath(lang, name))
}

// writeDirect is the per-language virtual's setter, used by bulk
// import/export tooling.
func (s *Schema) writeDirect(doc *document.Document, name, lang string, value any) any {
	if lang == s.DefaultLanguage() {
		doc.RawSet(name, value)
		doc.MarkChanged(name)
	} else {
		doc.RawSet(overlayPath(lang, name), value)
		doc.MarkChanged(OverlayField)
	}
	s.emitFieldChanged(doc, name, lang, value)
	return value
}
