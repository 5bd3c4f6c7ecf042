// Package canonical implements the deterministic serialization and hashing
// rules of the sync protocol. Two replicas must produce byte-identical output
// for semantically equal values, so everything here is defined in terms of a
// single canonical form: object keys sorted lexicographically, compact
// separators, no HTML escaping, explicit null for absent optional fields, and
// UTC second-precision timestamps.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimeFormat is the wire format for all timestamps. Always UTC, always
// second precision, so re-encoding a parsed value is byte-stable.
const TimeFormat = "2006-01-02T15:04:05Z"

// Marshal serializes v to its canonical JSON form.
//
// The value is first marshaled with encoding/json (wire structs use pointer
// fields without omitempty, so absent optionals serialize as explicit null),
// then re-encoded through an untyped tree. encoding/json sorts map keys, which
// gives lexicographic key order regardless of struct field order, and
// json.Number preserves the original number literal so no float formatting
// variance can creep in.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}

	// Encoder appends a trailing newline; the canonical form has none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal decodes canonical JSON bytes into v. It is a plain JSON decode;
// canonical form is a strict subset of JSON.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// FormatTime renders t in the canonical wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// FormatTimePtr renders an optional timestamp, nil stays nil.
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

// ParseTime parses a canonical wire timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// ParseTimePtr parses an optional wire timestamp, nil stays nil.
func ParseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
