package payload

import (
	"encoding/json"
	"fmt"
)

// Translations is the wire shape of a bulk translation payload: language
// code to field path to value.
type Translations = map[string]map[string]any

// Context carries identifiers tied to a translation payload.
type Context struct {
	Model    string
	Language string
}

// PreHook lets callers mutate or normalise the raw payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded translations.
type PostHook func(Context, Translations) error

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// Decoder converts loosely typed payloads into per-language field maps.
type Decoder struct {
	preHooks  []PreHook
	postHooks []PostHook
}

// WithPreHook applies hook prior to decoding.
func WithPreHook(hook PreHook) DecoderOption {
	return func(d *Decoder) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook(hook PostHook) DecoderOption {
	return func(d *Decoder) {
		d.postHooks = append(d.postHooks, hook)
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts raw into translations applying configured hooks.
func (d *Decoder) Decode(ctx Context, raw map[string]any) (Translations, error) {
	if raw == nil {
		return nil, fmt.Errorf("payload: payload is nil for model %q", ctx.Model)
	}

	current, err := clonePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("payload: clone payload for model %q: %w", ctx.Model, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("payload: pre-hook for model %q failed: %w", ctx.Model, err)
		}
		if next != nil {
			current = next
		}
	}

	result, err := Normalize(current)
	if err != nil {
		return nil, fmt.Errorf("payload: decode for model %q: %w", ctx.Model, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, result); err != nil {
			return nil, fmt.Errorf("payload: post-hook for model %q failed: %w", ctx.Model, err)
		}
	}

	return result, nil
}

// Normalize coerces a loosely typed value into the Translations shape. Each
// top-level entry must itself be a map of field path to value.
func Normalize(value any) (Translations, error) {
	switch typed := value.(type) {
	case nil:
		return nil, fmt.Errorf("payload: value is nil")
	case Translations:
		out := make(Translations, len(typed))
		for lang, entry := range typed {
			out[lang] = cloneEntry(entry)
		}
		return out, nil
	case map[string]any:
		out := make(Translations, len(typed))
		for lang, entry := range typed {
			fields, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("payload: entry for language %q is not a map", lang)
			}
			out[lang] = cloneEntry(fields)
		}
		return out, nil
	default:
		buffer, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("payload: marshal value: %w", err)
		}
		var out Translations
		if err := json.Unmarshal(buffer, &out); err != nil {
			return nil, fmt.Errorf("payload: value does not match translation shape: %w", err)
		}
		return out, nil
	}
}

func cloneEntry(entry map[string]any) map[string]any {
	out := make(map[string]any, len(entry))
	for key, value := range entry {
		out[key] = value
	}
	return out
}

func clonePayload(raw map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
