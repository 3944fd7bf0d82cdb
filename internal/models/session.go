package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Entity sources the client produces or displays specially.
const (
	SourceUserEdit      = "user_edit"
	SourceVoice         = "voice"
	SourceMasterProfile = "master_profile"
)

// Entity is one extracted form field. Backend values may be any JSON type;
// they are normalized to their display string on decode.
type Entity struct {
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// Filled reports whether the entity carries a non-empty value.
func (e Entity) Filled() bool {
	return e.Value != ""
}

type rawEntity struct {
	Value      json.RawMessage `json:"value"`
	Confidence *float64        `json:"confidence"`
	Source     *string         `json:"source"`
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	// A bare scalar is accepted as the value itself.
	if len(trimmed) == 0 || trimmed[0] != '{' {
		e.Value = StringifyRaw(trimmed)
		e.Confidence = nil
		e.Source = ""
		return nil
	}

	var raw rawEntity
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	e.Value = StringifyRaw(raw.Value)
	e.Confidence = raw.Confidence
	e.Source = ""
	if raw.Source != nil {
		e.Source = *raw.Source
	}
	return nil
}

// EntityMap is the session's extracted state keyed by field name.
type EntityMap map[string]Entity

// Clone returns an independent copy.
func (m EntityMap) Clone() EntityMap {
	out := make(EntityMap, len(m))
	for k, v := range m {
		if v.Confidence != nil {
			c := *v.Confidence
			v.Confidence = &c
		}
		out[k] = v
	}
	return out
}

// Keys returns the field names in sorted order.
func (m EntityMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilledCount counts entities with a value.
func (m EntityMap) FilledCount() int {
	n := 0
	for _, e := range m {
		if e.Filled() {
			n++
		}
	}
	return n
}

// InitSessionResponse is returned by POST /session/init.
type InitSessionResponse struct {
	SessionID         string   `json:"session_id"`
	Message           string   `json:"message"`
	RequiredDocuments []string `json:"required_documents"`
	PrefilledCount    int      `json:"prefilled_count"`
}

// UploadResponse is returned by POST /session/{id}/upload.
type UploadResponse struct {
	Message         string    `json:"message"`
	CurrentEntities EntityMap `json:"current_entities"`
}

// VoiceResponse is returned by POST /session/{id}/voice.
type VoiceResponse struct {
	Message       string    `json:"message"`
	Transcription string    `json:"transcription"`
	CurrentState  EntityMap `json:"current_state"`
}

// FinalForm is the flat field-to-value mapping returned by finalize.
type FinalForm map[string]string

func (f FinalForm) Clone() FinalForm {
	out := make(FinalForm, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f *FinalForm) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FinalForm, len(raw))
	for k, v := range raw {
		out[k] = StringifyRaw(v)
	}
	*f = out
	return nil
}

// FormsResponse is returned by GET /forms/list/.
type FormsResponse struct {
	Forms []string `json:"forms"`
}

// StringifyRaw renders a JSON value the way it is displayed in a form field:
// strings unquoted, null as empty, numbers and booleans verbatim, and
// composite values as compact JSON.
func StringifyRaw(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	default:
		if f, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return string(trimmed)
}
