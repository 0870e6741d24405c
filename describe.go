package translatable

// FieldDescriptor describes one addressable path on the augmented model and
// its declared type.
type FieldDescriptor struct {
	Path string
	Type string
}

// Describe emits flattened descriptors for the augmented model: every
// declared field, one entry per per-language virtual of each marked field,
// and the aggregate translations view. Form-generation and documentation
// tooling consume this to surface the virtual accessors.
func (s *Schema) Describe() []FieldDescriptor {
	var out []FieldDescriptor
	for _, field := range s.model.Fields() {
		out = append(out, FieldDescriptor{Path: field.Name, Type: field.Type})
		if _, ok := s.index[field.Name]; !ok {
			continue
		}
		for _, lang := range s.langs.list() {
			out = append(out, FieldDescriptor{
				Path: field.Name + "_" + lang,
				Type: field.Type,
			})
		}
	}
	out = append(out, FieldDescriptor{
		Path: AggregateField,
		Type: "map[string]map[string]any",
	})
	return out
}
