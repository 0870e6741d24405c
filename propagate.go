package translatable

import (
	"sync"

	"github.com/goliatone/go-translatable/pkg/document"
)

// Names of the administrative functions installed on a connection. The first
// schema set up against a connection installs both; later schemas find them
// present and leave them alone.
const (
	FanoutSetDefaultLanguage = "setDefaultLanguage"
	FanoutSetActiveLanguage  = "setActiveLanguage"
)

const (
	languageKindDefault = "default"
	languageKindActive  = "active"
)

var (
	registryMu sync.RWMutex
	registry   = map[*document.Model]*Schema{}
)

func register(model *document.Model, schema *Schema) {
	registryMu.Lock()
	registry[model] = schema
	registryMu.Unlock()
}

// Lookup returns the schema augmenting model, if any. Nested models found
// while walking a composition graph resolve to their schemas through here.
func Lookup(model *document.Model) (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	schema, ok := registry[model]
	return schema, ok
}

// DocumentLanguage returns the language resolved for doc right now:
// instance override, rule result, schema active, or default.
func (s *Schema) DocumentLanguage(doc *document.Document) string {
	lang, _ := s.resolveLanguage(doc)
	return lang
}

// SetDocumentLanguage sets the transient per-instance override. Codes
// outside the configured set are a silent no-op. The override is process
// memory only and is never persisted with the document.
func (s *Schema) SetDocumentLanguage(doc *document.Document, code string) {
	if doc == nil {
		return
	}
	normalized, ok := normalizeLanguage(code)
	if !ok || !s.langs.contains(normalized) {
		return
	}
	doc.SetLocal(languageLocal, normalized)
}

// ClearDocumentLanguage removes the per-instance override.
func (s *Schema) ClearDocumentLanguage(doc *document.Document) {
	if doc == nil {
		return
	}
	doc.ClearLocal(languageLocal)
}

// SetActiveLanguage switches the schema-wide active language and recursively
// retunes every nested schema reachable through the model's composition
// graph. Invalid codes leave all state unchanged.
func (s *Schema) SetActiveLanguage(code string) {
	s.propagate(code, languageKindActive, map[*Schema]struct{}{})
}

// SetDefaultLanguage switches the schema default language with the same
// recursive propagation and validation as SetActiveLanguage.
func (s *Schema) SetDefaultLanguage(code string) {
	s.propagate(code, languageKindDefault, map[*Schema]struct{}{})
}

// propagate applies one language change and walks into sub-schemas. The
// visited set memoises shared sub-schemas so a diamond-shaped composition
// graph is retuned once per schema.
func (s *Schema) propagate(code, kind string, visited map[*Schema]struct{}) {
	normalized, ok := normalizeLanguage(code)
	if !ok || !s.langs.contains(normalized) {
		return
	}
	if _, seen := visited[s]; seen {
		return
	}
	visited[s] = struct{}{}

	s.mu.Lock()
	if kind == languageKindDefault {
		s.def = normalized
	} else {
		s.active = normalized
	}
	s.mu.Unlock()
	s.emitLanguageChanged(kind, normalized)

	for _, field := range s.model.Fields() {
		if field.Model == nil {
			continue
		}
		if nested, ok := Lookup(field.Model); ok {
			nested.propagate(normalized, kind, visited)
		}
	}
}

// installFanout installs the connection-wide language functions, each of
// which retunes every schema registered on the connection. Installation is
// guarded by the connection's check-before-install semantics, so repeated
// schema setups cannot redefine them.
func installFanout(conn *document.Connection) {
	conn.InstallFunction(FanoutSetDefaultLanguage, func(code string) {
		for _, model := range conn.Models() {
			if schema, ok := Lookup(model); ok {
				schema.SetDefaultLanguage(code)
			}
		}
	})
	conn.InstallFunction(FanoutSetActiveLanguage, func(code string) {
		for _, model := range conn.Models() {
			if schema, ok := Lookup(model); ok {
				schema.SetActiveLanguage(code)
			}
		}
	})
}

// SetDefaultLanguage retunes every schema registered on the process default
// connection. It is the process-wide alias for the connection fan-out.
func SetDefaultLanguage(code string) {
	forwardDefault(FanoutSetDefaultLanguage, code)
}

// SetActiveLanguage retunes the active language of every schema registered
// on the process default connection.
func SetActiveLanguage(code string) {
	forwardDefault(FanoutSetActiveLanguage, code)
}

func forwardDefault(name, code string) {
	conn := document.Default()
	// installation is idempotent; the function table guards redefinition
	installFanout(conn)
	conn.Call(name, code)
}
