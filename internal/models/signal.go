// Package models defines the core data structures for sanctions-radar.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Known field names on records returned by the signal source.
const (
	FieldTimestamp = "timestamp"
	FieldTitle     = "title"
	FieldText      = "text"
	FieldSource    = "source"
	FieldURL       = "url"
)

// RawSignal is one record returned by the external signal source.
// Every field is kept as raw JSON so provider-specific extras survive a
// decode/encode round-trip untouched.
type RawSignal struct {
	fields map[string]json.RawMessage
}

// NewRawSignal builds a RawSignal from already-encoded fields.
func NewRawSignal(fields map[string]json.RawMessage) RawSignal {
	cp := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		cp[k] = append(json.RawMessage(nil), v...)
	}
	return RawSignal{fields: cp}
}

// RawSignalFromMap encodes plain Go values into a RawSignal.
func RawSignalFromMap(m map[string]any) (RawSignal, error) {
	fields := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		b, err := json.Marshal(v)
		if err != nil {
			return RawSignal{}, fmt.Errorf("encoding field %q: %w", k, err)
		}
		fields[k] = b
	}
	return RawSignal{fields: fields}, nil
}

// Field returns the raw JSON of a field.
func (s RawSignal) Field(name string) (json.RawMessage, bool) {
	v, ok := s.fields[name]
	return v, ok
}

// Len returns the number of fields.
func (s RawSignal) Len() int {
	return len(s.fields)
}

// StringField returns a string field, or "" when the field is missing or not a string.
func (s RawSignal) StringField(name string) string {
	raw, ok := s.fields[name]
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func (s RawSignal) Title() string  { return s.StringField(FieldTitle) }
func (s RawSignal) Text() string   { return s.StringField(FieldText) }
func (s RawSignal) Source() string { return s.StringField(FieldSource) }
func (s RawSignal) URL() string    { return s.StringField(FieldURL) }

// Headline returns the title, falling back to the text body.
func (s RawSignal) Headline() string {
	if t := s.Title(); t != "" {
		return t
	}
	return s.Text()
}

// Timestamp parses the timestamp field. Missing or unparseable values yield
// the zero time so such records sort as the oldest.
func (s RawSignal) Timestamp() time.Time {
	raw, ok := s.fields[FieldTimestamp]
	if !ok {
		return time.Time{}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}
	}

	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}
		}
		t, err := ParseTimeFlexible(str)
		if err != nil {
			return time.Time{}
		}
		return t
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return time.Time{}
	}
	return epochToTime(n.String())
}

// MarshalJSON writes the record with every field as received.
func (s RawSignal) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.fields)
}

// UnmarshalJSON accepts any JSON object.
func (s *RawSignal) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("signal record is not an object")
	}
	s.fields = fields
	return nil
}

// ParseTimeFlexible parses timestamps in the formats signal providers use:
// RFC3339, common date layouts and epoch seconds or milliseconds.
func ParseTimeFlexible(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// naive epoch seconds or millis
	if len(s) >= 10 {
		if t := epochToTime(s); !t.IsZero() {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time: %s", s)
}

// epochToTime interprets a numeric string as epoch seconds, or milliseconds
// when it is too large to be seconds.
func epochToTime(s string) time.Time {
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 {
			return time.Time{}
		}
		s = strconv.FormatInt(int64(f), 10)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
