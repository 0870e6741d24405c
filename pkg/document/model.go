package document

import (
	"fmt"
	"sync"
)

// Getter produces the value surfaced when a field or virtual is read.
type Getter func(doc *Document) any

// Setter intercepts a write and returns the value the caller should see,
// which may differ from the value written when the hook redirects storage.
type Setter func(doc *Document, value any) any

// Field declares one named slot on a model. Options carries arbitrary
// declared flags that plugins inspect at augmentation time.
type Field struct {
	Name     string
	Type     string
	Required bool
	Options  map[string]any
	// Model references a nested sub-model when the field embeds another
	// document shape. Slice marks the field as a list of such documents.
	Model *Model
	Slice bool

	getter Getter
	setter Setter
}

// Option reads a declared option by key, returning ok=false when absent.
func (f Field) Option(key string) (any, bool) {
	value, ok := f.Options[key]
	return value, ok
}

// BoolOption reads a declared option as a boolean, treating absent or
// non-boolean values as false.
func (f Field) BoolOption(key string) bool {
	value, ok := f.Options[key]
	if !ok {
		return false
	}
	b, ok := value.(bool)
	return ok && b
}

// StringOption reads a declared option as a string, returning "" when absent
// or not a string.
func (f Field) StringOption(key string) string {
	value, ok := f.Options[key]
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// Virtual is a computed field addressable by name but never stored.
type Virtual struct {
	Name   string
	getter Getter
	setter Setter
}

// Model holds ordered field declarations and the virtuals installed on top of
// them. Field hooks can be redeclared after construction, which is how
// plugins replace a field's storage semantics while keeping its declaration.
type Model struct {
	name string

	mu       sync.RWMutex
	fields   map[string]Field
	order    []string
	virtuals map[string]Virtual
	vorder   []string
}

// NewModel constructs a model from ordered field declarations. Duplicate or
// unnamed fields are rejected.
func NewModel(name string, fields ...Field) (*Model, error) {
	if name == "" {
		return nil, fmt.Errorf("document: model name must not be empty")
	}
	m := &Model{
		name:     name,
		fields:   make(map[string]Field, len(fields)),
		virtuals: map[string]Virtual{},
	}
	for _, field := range fields {
		if err := m.AddField(field); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Name returns the model name used for registry and change-event identity.
func (m *Model) Name() string {
	return m.name
}

// AddField appends a field declaration, guarding against duplicates.
func (m *Model) AddField(field Field) error {
	if field.Name == "" {
		return fmt.Errorf("document: field name must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.fields[field.Name]; exists {
		return fmt.Errorf("document: field %q already declared", field.Name)
	}
	m.fields[field.Name] = field
	m.order = append(m.order, field.Name)
	return nil
}

// Redeclare removes and re-adds a field carrying new get/set hooks while
// preserving every other declared attribute and its position.
func (m *Model) Redeclare(name string, getter Getter, setter Setter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	field, ok := m.fields[name]
	if !ok {
		return fmt.Errorf("document: field %q not declared", name)
	}
	field.getter = getter
	field.setter = setter
	m.fields[name] = field
	return nil
}

// Field looks up a declared field by name.
func (m *Model) Field(name string) (Field, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	field, ok := m.fields[name]
	return field, ok
}

// Fields returns the declared fields in declaration order.
func (m *Model) Fields() []Field {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Field, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.fields[name])
	}
	return out
}

// AddVirtual installs a computed field addressable by name. Installing over
// an existing virtual or declared field is rejected.
func (m *Model) AddVirtual(name string, getter Getter, setter Setter) error {
	if name == "" {
		return fmt.Errorf("document: virtual name must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.fields[name]; exists {
		return fmt.Errorf("document: virtual %q collides with declared field", name)
	}
	if _, exists := m.virtuals[name]; exists {
		return fmt.Errorf("document: virtual %q already installed", name)
	}
	m.virtuals[name] = Virtual{Name: name, getter: getter, setter: setter}
	m.vorder = append(m.vorder, name)
	return nil
}

// Virtual looks up an installed virtual by name.
func (m *Model) Virtual(name string) (Virtual, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	virtual, ok := m.virtuals[name]
	return virtual, ok
}

// Virtuals returns installed virtuals in installation order.
func (m *Model) Virtuals() []Virtual {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Virtual, 0, len(m.vorder))
	for _, name := range m.vorder {
		out = append(out, m.virtuals[name])
	}
	return out
}
