// Package snapshot holds the candidate dataset as an ordered mapping of
// region keys to opaque JSON values, and persists it as a local JSON file.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned when a document's top-level value is not a JSON object.
var ErrNotObject = errors.New("snapshot: top-level JSON value is not an object")

// Value is an opaque JSON value. It is forwarded as-is and never interpreted.
type Value = json.RawMessage

// Snapshot maps region keys to opaque values, keeping the order in which
// keys were first seen.
type Snapshot struct {
	keys   []string
	values map[string]Value
}

// New returns an empty snapshot.
func New() *Snapshot {
	return &Snapshot{values: make(map[string]Value)}
}

// Parse decodes a JSON document whose top-level value must be an object.
// Syntax errors are returned as *json.SyntaxError.
func Parse(data []byte) (*Snapshot, error) {
	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Has reports whether key is present.
func (s *Snapshot) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.values[key]
	return ok
}

// Get returns the value stored under key.
func (s *Snapshot) Get(key string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Set stores v under key. A key that already exists keeps its position.
func (s *Snapshot) Set(key string, v Value) {
	if s.values == nil {
		s.values = make(map[string]Value)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// MarshalJSON writes the snapshot as a compact JSON object in key order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		v := s.values[k]
		if len(v) == 0 {
			buf.WriteString("null")
			continue
		}
		if err := json.Compact(&buf, v); err != nil {
			return nil, fmt.Errorf("snapshot: value for %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the contents of s with the members of a JSON
// object. Duplicate keys keep their first position and their last value.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}

	s.keys = nil
	s.values = make(map[string]Value)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("snapshot: unexpected object key %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return err
		}
		s.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("snapshot: trailing data after object")
	}
	return nil
}
