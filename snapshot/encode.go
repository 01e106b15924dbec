package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const indent = "    "

// Encode renders s as indented JSON: four-space indentation, object key
// order preserved at every depth, number literals kept verbatim, and
// non-ASCII and HTML characters written literally.
func Encode(s *Snapshot) ([]byte, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := writeValue(&buf, dec, 0); err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, dec *json.Decoder, depth int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return writeContainer(buf, dec, depth, '{', '}', true)
		case '[':
			return writeContainer(buf, dec, depth, '[', ']', false)
		}
		return fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return writeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}
	return nil
}

func writeContainer(buf *bytes.Buffer, dec *json.Decoder, depth int, open, closing byte, object bool) error {
	if !dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte(open)
		buf.WriteByte(closing)
		return nil
	}

	buf.WriteByte(open)
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		newline(buf, depth+1)
		if object {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := tok.(string)
			if !ok {
				return fmt.Errorf("unexpected object key %v", tok)
			}
			if err := writeString(buf, key); err != nil {
				return err
			}
			buf.WriteString(": ")
		}
		if err := writeValue(buf, dec, depth+1); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	newline(buf, depth)
	buf.WriteByte(closing)
	return nil
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
}

// writeString quotes s without escaping HTML characters; encoding/json
// already leaves valid non-ASCII runes unescaped.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
