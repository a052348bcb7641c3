package domain

import (
	"bytes"
	"encoding/json"
)

// TextKind discriminates the shapes a Text value can take.
type TextKind uint8

// Text kinds.
const (
	// TextAbsent is a null or missing value.
	TextAbsent TextKind = iota
	// TextScalar is a plain value (string, number or boolean).
	TextScalar
	// TextBilingual is a structured value, usually {"english": ..., "hindi": ...}.
	TextBilingual
)

// Text is a value the analysis backend reports either as a plain string or as a
// bilingual object. Unknown structures are kept as compact JSON so they can
// still be rendered.
type Text struct {
	Kind TextKind

	// Value holds a scalar value.
	Value string

	// English and Hindi hold the fields of a bilingual object.
	English string
	Hindi   string

	// Raw is the compact JSON of a structured value.
	Raw string
}

// ScalarText returns a scalar Text.
func ScalarText(s string) Text {
	return Text{Kind: TextScalar, Value: s}
}

// BilingualText returns a bilingual Text with the given fields.
func BilingualText(english, hindi string) Text {
	obj := make(map[string]string, 2)
	if english != "" {
		obj["english"] = english
	}
	if hindi != "" {
		obj["hindi"] = hindi
	}
	raw, _ := json.Marshal(obj)
	return Text{Kind: TextBilingual, English: english, Hindi: hindi, Raw: string(raw)}
}

// IsAbsent returns true for null or missing values.
func (t Text) IsAbsent() bool {
	return t.Kind == TextAbsent
}

// UnmarshalJSON decodes any JSON value. It never fails: undecodable input
// becomes an absent Text.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = parseText(data)
	return nil
}

// MarshalJSON encodes the value back into the shape it was received in.
func (t Text) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TextScalar:
		return json.Marshal(t.Value)
	case TextBilingual:
		if t.Raw != "" {
			return []byte(t.Raw), nil
		}
		return json.Marshal(map[string]string{"english": t.English, "hindi": t.Hindi})
	default:
		return []byte("null"), nil
	}
}

func parseText(data []byte) Text {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Text{}
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Text{}
		}
		return ScalarText(s)

	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return Text{}
		}
		t := Text{Kind: TextBilingual, Raw: compact.String()}
		if data[0] == '{' {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(data, &fields); err == nil {
				t.English = stringField(fields, "english")
				t.Hindi = stringField(fields, "hindi")
			}
		}
		return t

	default:
		// Numbers and booleans keep their literal text.
		if !json.Valid(data) {
			return Text{}
		}
		return ScalarText(string(data))
	}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
