package cloudability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is an immutable view over one JSON record of an API response.
//
// The raw bytes are kept as received so both renderings preserve the
// server's key order. Object fields are decoded once, numbers as json.Number.
type Entry struct {
	raw    json.RawMessage
	fields map[string]any
	keys   []string
}

// NewEntry wraps a single JSON value. It never fails: a value that is not a
// JSON object simply has no fields.
func NewEntry(raw json.RawMessage) Entry {
	e := Entry{raw: append(json.RawMessage(nil), raw...)}

	dec := json.NewDecoder(bytes.NewReader(e.raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err == nil && fields != nil {
		e.fields = fields
		e.keys = objectKeys(e.raw)
	}
	return e
}

// Raw returns a copy of the wrapped record
func (e Entry) Raw() json.RawMessage {
	return append(json.RawMessage(nil), e.raw...)
}

// Lookup returns the value stored under key and whether it was present
func (e Entry) Lookup(key string) (any, bool) {
	v, ok := e.fields[key]
	return v, ok
}

// Get returns the value stored under key. An absent key yields an error
// wrapping ErrFieldNotFound; a present key holding JSON null yields (nil, nil).
func (e Entry) Get(key string) (any, error) {
	v, ok := e.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	return v, nil
}

// Text returns the field rendered as a string. JSON strings are returned as
// is, numbers and booleans in their JSON spelling, null as "".
func (e Entry) Text(key string) (string, error) {
	v, err := e.Get(key)
	if err != nil {
		return "", err
	}
	return formatValue(v), nil
}

// Decimal parses a money-like field. Cloudability returns spend both as JSON
// numbers and as numeric strings, so both are accepted.
func (e Entry) Decimal(key string) (decimal.Decimal, error) {
	v, err := e.Get(key)
	if err != nil {
		return decimal.Zero, err
	}

	var s string
	switch val := v.(type) {
	case json.Number:
		s = val.String()
	case string:
		s = strings.TrimSpace(val)
	default:
		return decimal.Zero, fmt.Errorf("field %q is %T, not a number", key, v)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %q: %w", key, err)
	}
	return d, nil
}

// Keys returns the object keys in document order
func (e Entry) Keys() []string {
	return append([]string(nil), e.keys...)
}

// String renders the record pretty-printed with a two-space indent
func (e Entry) String() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, e.raw, "", "  "); err != nil {
		return string(e.raw)
	}
	return buf.String()
}

// Compact renders the record without insignificant whitespace
func (e Entry) Compact() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, e.raw); err != nil {
		return string(e.raw)
	}
	return buf.String()
}

// GoString makes %#v print the compact form
func (e Entry) GoString() string {
	return e.Compact()
}

// MarshalJSON returns the wrapped record unchanged
func (e Entry) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.Raw(), nil
}

// objectKeys walks the top-level object tokens to recover key order, which
// decoding into a map loses.
func objectKeys(raw []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

// formatValue renders a decoded JSON value the way it reads in a table cell
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
