package translatable

import (
	"encoding/json"
)

// Source identifies which storage slot produced a resolved read.
type Source string

const (
	// SourceOverlay means the requested language's overlay entry was used.
	SourceOverlay Source = "overlay"
	// SourceFallback means the per-field fallback language's entry was used.
	SourceFallback Source = "fallback"
	// SourceBase means the read degraded to the base default-language value.
	SourceBase Source = "base"
)

// Language resolution sources recorded in a trace.
const (
	LanguageSourceOverride = "override"
	LanguageSourceRule     = "rule"
	LanguageSourceActive   = "active"
	LanguageSourceDefault  = "default"
)

// Trace captures provenance for one field read: the language that was
// requested, where that language came from, and which slot in the fallback
// chain produced the value.
type Trace struct {
	Field          string `json:"field"`
	Requested      string `json:"requested"`
	LanguageSource string `json:"language_source"`
	Resolved       string `json:"resolved"`
	Source         Source `json:"source"`
	FallbackUsed   bool   `json:"fallback_used"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated
// via ToJSON.
func TraceFromJSON(data []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(data, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
