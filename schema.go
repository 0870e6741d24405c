package translatable

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-translatable/pkg/document"
	"github.com/goliatone/go-translatable/pkg/tracking"
)

const (
	// OptionTranslatable marks a field declaration for translation.
	OptionTranslatable = "translatable"
	// OptionFallback declares a per-field fallback language consulted before
	// a read degrades to the default-language value.
	OptionFallback = "fallback"
	// OverlayField is the reserved storage slot that holds every
	// non-default-language value, keyed by language then field path.
	OverlayField = "i18n"
	// AggregateField is the virtual exposing the full per-language map for
	// all marked fields at once.
	AggregateField = "_translations"

	// languageLocal is the transient document key holding the per-instance
	// language override. It is never persisted.
	languageLocal = "translatable.language"
)

// TranslatedField records one field marked for translation and its optional
// fallback language.
type TranslatedField struct {
	Name     string
	Fallback string
}

// Schema augments a document model so fields marked translatable hold
// per-language values while remaining readable and writable by their plain
// names. The base field slot always carries the default-language value; the
// overlay holds everything else.
type Schema struct {
	model   *document.Model
	cfg     schemaConfig
	rule    string
	emitter *tracking.Emitter
	langs   *languageSet

	mu     sync.RWMutex
	def    string
	active string

	fields []TranslatedField
	index  map[string]TranslatedField
}

// New augments model in place: every field declared with the translatable
// option gets language-aware get/set interceptors, one direct virtual per
// configured language, and membership in the aggregate translations view.
// The model is then registered on the connection (the process default unless
// WithConnection overrides it) and the connection-wide language fan-out is
// installed if not already present.
func New(model *document.Model, settings Settings, opts ...Option) (*Schema, error) {
	if model == nil {
		return nil, fmt.Errorf("translatable: model must not be nil")
	}
	cfg := applyOptions(opts)

	langs, err := newLanguageSet(settings.Languages)
	if err != nil {
		return nil, err
	}
	def, ok := normalizeLanguage(settings.DefaultLanguage)
	if !ok || !langs.contains(def) {
		return nil, fmt.Errorf("%w: %q", ErrDefaultLanguage, settings.DefaultLanguage)
	}

	s := &Schema{
		model: model,
		cfg:   cfg,
		rule:  strings.TrimSpace(settings.Rule),
		langs: langs,
		def:   def,
		index: map[string]TranslatedField{},
	}
	// an invalid initial selection degrades to the default, matching the
	// fail-soft runtime setters
	if active, ok := normalizeLanguage(settings.ActiveLanguage); ok && langs.contains(active) {
		s.active = active
	}
	s.emitter = tracking.NewEmitter(cfg.hooks, tracking.Config{
		Enabled: len(cfg.hooks) > 0,
		Channel: cfg.channel,
	})
	if s.rule != "" && s.cfg.resolver == nil {
		s.cfg.resolver = defaultResolver(cfg)
	}

	for _, field := range model.Fields() {
		if !field.BoolOption(OptionTranslatable) {
			continue
		}
		if field.Name == OverlayField {
			return nil, fmt.Errorf("translatable: field name %q is reserved for overlay storage", OverlayField)
		}
		marked := TranslatedField{Name: field.Name}
		if fallback, ok := normalizeLanguage(field.StringOption(OptionFallback)); ok && langs.contains(fallback) {
			marked.Fallback = fallback
		}
		s.fields = append(s.fields, marked)
		s.index[marked.Name] = marked
	}

	for _, marked := range s.fields {
		if err := s.installField(marked); err != nil {
			return nil, err
		}
	}
	if err := s.installAggregate(); err != nil {
		return nil, err
	}

	register(model, s)

	conn := cfg.connection
	if conn == nil {
		conn = document.Default()
	}
	if err := conn.Register(model); err != nil {
		return nil, err
	}
	installFanout(conn)

	return s, nil
}

// Model returns the augmented model.
func (s *Schema) Model() *document.Model {
	return s.model
}

// Fields returns the marked fields in declaration order.
func (s *Schema) Fields() []TranslatedField {
	return append([]TranslatedField(nil), s.fields...)
}

// NewDocument constructs a fresh document for the augmented model.
func (s *Schema) NewDocument() *document.Document {
	return document.New(s.model)
}

func (s *Schema) fallbackFor(name string) string {
	marked, ok := s.index[name]
	if !ok {
		return ""
	}
	return marked.Fallback
}

func (s *Schema) resolverLogger() ResolverLogger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopResolverLogger{}
}

func (s *Schema) emitFieldChanged(doc *document.Document, field, lang string, value any) {
	if doc == nil || !s.emitter.Enabled() {
		return
	}
	_ = s.emitter.Emit(context.Background(), tracking.BuildFieldChangedEvent(tracking.ChangeInput{
		DocumentType: s.model.Name(),
		DocumentID:   doc.ID().String(),
		Field:        field,
		Language:     lang,
		NewValue:     value,
	}))
}

func (s *Schema) emitLanguageChanged(kind, lang string) {
	if !s.emitter.Enabled() {
		return
	}
	_ = s.emitter.Emit(context.Background(), tracking.BuildLanguageChangedEvent(tracking.ChangeInput{
		DocumentType: s.model.Name(),
		DocumentID:   s.model.Name(),
		Language:     lang,
		Metadata:     map[string]any{"kind": kind},
	}))
}

func (s *Schema) emitTranslationsReplaced(doc *document.Document) {
	if doc == nil || !s.emitter.Enabled() {
		return
	}
	_ = s.emitter.Emit(context.Background(), tracking.BuildTranslationsReplacedEvent(tracking.ChangeInput{
		DocumentType: s.model.Name(),
		DocumentID:   doc.ID().String(),
	}))
}
