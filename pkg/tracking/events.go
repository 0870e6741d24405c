package tracking

import "time"

// ChangeInput describes the common fields for document change events.
type ChangeInput struct {
	ActorID      string
	UserID       string
	TenantID     string
	DocumentType string
	DocumentID   string
	Field        string
	Language     string
	Channel      string
	Metadata     map[string]any
	OldValue     any
	NewValue     any
	OccurredAt   time.Time
}

// BuildFieldChangedEvent constructs a normalized event for one field write.
func BuildFieldChangedEvent(input ChangeInput) Event {
	return buildChangeEvent("field.changed", input)
}

// BuildLanguageChangedEvent constructs a normalized event for an active or
// default language switch.
func BuildLanguageChangedEvent(input ChangeInput) Event {
	return buildChangeEvent("language.changed", input)
}

// BuildTranslationsReplacedEvent constructs a normalized event for a bulk
// overlay replacement.
func BuildTranslationsReplacedEvent(input ChangeInput) Event {
	return buildChangeEvent("translations.replaced", input)
}

func buildChangeEvent(verb string, input ChangeInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.OldValue != nil || input.NewValue != nil {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if input.OldValue != nil {
			metadata["old_value"] = input.OldValue
		}
		if input.NewValue != nil {
			metadata["new_value"] = input.NewValue
		}
	}
	return NormalizeEvent(Event{
		Verb:         verb,
		ActorID:      input.ActorID,
		UserID:       input.UserID,
		TenantID:     input.TenantID,
		DocumentType: input.DocumentType,
		DocumentID:   input.DocumentID,
		Field:        input.Field,
		Language:     input.Language,
		Channel:      input.Channel,
		Metadata:     metadata,
		OccurredAt:   input.OccurredAt,
	})
}
