package document

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Document is one in-memory instance produced from a model. Data is
// path-addressed with dot notation; change marks feed downstream persistence.
// Locals are transient process-memory scratch state and are never persisted.
//
// A document is not safe for concurrent use; instances are expected to be
// scoped to a single logical operation.
type Document struct {
	model *Model
	id    uuid.UUID

	data    map[string]any
	changed map[string]struct{}
	locals  map[string]any
	isNew   bool
}

// New constructs a fresh, not-yet-persisted document for model.
func New(model *Model) *Document {
	return &Document{
		model:   model,
		id:      uuid.New(),
		data:    map[string]any{},
		changed: map[string]struct{}{},
		isNew:   true,
	}
}

// Model returns the model this document was produced from.
func (d *Document) Model() *Model {
	return d.model
}

// ID returns the document identity assigned at construction.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// IsNew reports whether the document has never been persisted.
func (d *Document) IsNew() bool {
	return d.isNew
}

// Get reads name through the model's access primitives, probing in a fixed
// preference order: virtual getter, then field getter hook, then the raw
// path lookup. Missing names resolve to nil rather than failing.
func (d *Document) Get(name string) any {
	if d == nil || d.model == nil {
		return nil
	}
	if virtual, ok := d.model.Virtual(name); ok && virtual.getter != nil {
		return virtual.getter(d)
	}
	if field, ok := d.model.Field(name); ok && field.getter != nil {
		return field.getter(d)
	}
	return d.RawGet(name)
}

// Set writes name through the same preference order as Get and returns the
// value the responsible hook considers authoritative. Without a hook the raw
// write happens in place and value itself is returned.
func (d *Document) Set(name string, value any) any {
	if d == nil || d.model == nil {
		return nil
	}
	if virtual, ok := d.model.Virtual(name); ok {
		if virtual.setter == nil {
			return nil
		}
		return virtual.setter(d, value)
	}
	if field, ok := d.model.Field(name); ok && field.setter != nil {
		return field.setter(d, value)
	}
	d.RawSet(name, value)
	d.MarkChanged(name)
	return value
}

// RawGet reads a dot path directly from storage, bypassing all hooks.
func (d *Document) RawGet(path string) any {
	if d == nil || path == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	current := any(d.data)
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = node[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// RawSet writes a dot path directly into storage, creating intermediate maps
// as needed and bypassing all hooks and change marks.
func (d *Document) RawSet(path string, value any) {
	if d == nil || path == "" {
		return
	}
	segments := strings.Split(path, ".")
	node := d.data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[segment] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
}

// RawDelete removes a dot path from storage when present.
func (d *Document) RawDelete(path string) {
	if d == nil || path == "" {
		return
	}
	segments := strings.Split(path, ".")
	node := d.data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
	delete(node, segments[len(segments)-1])
}

// MarkChanged records path for downstream change tracking.
func (d *Document) MarkChanged(path string) {
	if d == nil || path == "" {
		return
	}
	if d.changed == nil {
		d.changed = map[string]struct{}{}
	}
	d.changed[path] = struct{}{}
}

// HasChanged reports whether path carries a change mark.
func (d *Document) HasChanged(path string) bool {
	if d == nil {
		return false
	}
	_, ok := d.changed[path]
	return ok
}

// Changed returns the marked paths sorted alphabetically.
func (d *Document) Changed() []string {
	if d == nil || len(d.changed) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.changed))
	for path := range d.changed {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// SetLocal stores transient per-instance state that never persists.
func (d *Document) SetLocal(key string, value any) {
	if d == nil || key == "" {
		return
	}
	if d.locals == nil {
		d.locals = map[string]any{}
	}
	d.locals[key] = value
}

// Local reads transient per-instance state.
func (d *Document) Local(key string) (any, bool) {
	if d == nil || d.locals == nil {
		return nil, false
	}
	value, ok := d.locals[key]
	return value, ok
}

// ClearLocal removes transient per-instance state.
func (d *Document) ClearLocal(key string) {
	if d == nil || d.locals == nil {
		return
	}
	delete(d.locals, key)
}

// Snapshot returns a deep copy of the stored data for read-only consumers.
func (d *Document) Snapshot() map[string]any {
	if d == nil {
		return map[string]any{}
	}
	return cloneData(d.data)
}

func (d *Document) markPersisted() {
	d.isNew = false
	d.changed = map[string]struct{}{}
}

func cloneData(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneData(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
