package cloudability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// Report is an ordered, fixed-length collection of entries built once from a
// JSON array. Slicing helpers return new reports that share the backing
// entries; nothing is ever appended, so sharing is safe.
type Report struct {
	entries []Entry
}

// NewReport wraps each element of a decoded JSON array in an Entry
func NewReport(items []json.RawMessage) *Report {
	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = NewEntry(item)
	}
	return &Report{entries: entries}
}

// DecodeReport builds a report from a response body. A top-level array
// yields one entry per element; a top-level object (job state, single
// resources) yields a one-entry report. Anything else is a *ShapeError.
func DecodeReport(data []byte) (*Report, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ShapeError{Got: "empty body"}
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode report array: %w", err)
		}
		return NewReport(items), nil
	case '{':
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("failed to decode report object: invalid JSON")
		}
		return NewReport([]json.RawMessage{trimmed}), nil
	default:
		return nil, &ShapeError{Got: jsonKind(trimmed)}
	}
}

// Len returns the number of entries
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// At returns the entry at index i. Negative indexes count from the end.
func (r *Report) At(i int) (Entry, error) {
	n := r.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Entry{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, n)
	}
	return r.entries[i], nil
}

// All iterates over the entries in order. Each call starts a fresh traversal.
func (r *Report) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		if r == nil {
			return
		}
		for i, e := range r.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries
func (r *Report) Entries() []Entry {
	if r == nil {
		return nil
	}
	return append([]Entry(nil), r.entries...)
}

// Head returns the first entry
func (r *Report) Head() (Entry, error) {
	if r.Len() == 0 {
		return Entry{}, ErrEmptyReport
	}
	return r.entries[0], nil
}

// Last returns the final entry
func (r *Report) Last() (Entry, error) {
	if r.Len() == 0 {
		return Entry{}, ErrEmptyReport
	}
	return r.entries[len(r.entries)-1], nil
}

// Tail returns every entry after the first
func (r *Report) Tail() *Report {
	return r.Drop(1)
}

// Init returns every entry before the last
func (r *Report) Init() *Report {
	return r.Take(r.Len() - 1)
}

// Drop returns the entries from index n onward. n is clamped to [0, Len].
func (r *Report) Drop(n int) *Report {
	n = r.clamp(n)
	return r.slice(n, r.Len())
}

// Take returns the first n entries. n is clamped to [0, Len].
func (r *Report) Take(n int) *Report {
	return r.slice(0, r.clamp(n))
}

// String renders every entry's indented JSON form between brackets
func (r *Report) String() string {
	var b strings.Builder
	b.WriteString("[\n")
	for i, e := range r.All() {
		if i > 0 {
			b.WriteString("\n")
		}
		for j, line := range strings.Split(e.String(), "\n") {
			if j > 0 {
				b.WriteString("\n")
			}
			b.WriteString("  ")
			b.WriteString(line)
		}
	}
	if r.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}

// MarshalJSON encodes the report as a JSON array of the raw entries
func (r *Report) MarshalJSON() ([]byte, error) {
	entries := r.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

func (r *Report) clamp(n int) int {
	if n < 0 {
		return 0
	}
	if l := r.Len(); n > l {
		return l
	}
	return n
}

func (r *Report) slice(lo, hi int) *Report {
	if r == nil {
		return &Report{}
	}
	return &Report{entries: r.entries[lo:hi:hi]}
}

// jsonKind names the JSON type starting at data[0] for error messages
func jsonKind(data []byte) string {
	switch c := data[0]; {
	case c == '"':
		return "string"
	case c == 't' || c == 'f':
		return "boolean"
	case c == 'n':
		return "null"
	case c == '-' || (c >= '0' && c <= '9'):
		return "number"
	default:
		return fmt.Sprintf("invalid JSON starting with %q", c)
	}
}
