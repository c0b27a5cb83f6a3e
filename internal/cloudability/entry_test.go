package cloudability

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestEntry_String_PrettyPrints(t *testing.T) {
	e := NewEntry(json.RawMessage(`{"id":1}`))

	want := "{\n  \"id\": 1\n}"
	if got := e.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEntry_Rendering_PreservesKeyOrder(t *testing.T) {
	e := NewEntry(json.RawMessage(`{"zeta": 1, "alpha": {"b": 2, "a": [1, 2]}}`))

	wantPretty := "{\n  \"zeta\": 1,\n  \"alpha\": {\n    \"b\": 2,\n    \"a\": [\n      1,\n      2\n    ]\n  }\n}"
	if got := e.String(); got != wantPretty {
		t.Errorf("String() = %q, want %q", got, wantPretty)
	}

	wantCompact := `{"zeta":1,"alpha":{"b":2,"a":[1,2]}}`
	if got := e.Compact(); got != wantCompact {
		t.Errorf("Compact() = %q, want %q", got, wantCompact)
	}
	if got := e.GoString(); got != wantCompact {
		t.Errorf("GoString() = %q, want %q", got, wantCompact)
	}

	if got := e.Keys(); !reflect.DeepEqual(got, []string{"zeta", "alpha"}) {
		t.Errorf("Keys() = %v, want [zeta alpha]", got)
	}
}

func TestEntry_Get(t *testing.T) {
	e := NewEntry(json.RawMessage(`{"vendor": "Amazon", "spend": 12.5, "account": null}`))

	tests := []struct {
		name    string
		key     string
		want    any
		wantErr error
	}{
		{"string field", "vendor", "Amazon", nil},
		{"number field", "spend", json.Number("12.5"), nil},
		{"null field", "account", nil, nil},
		{"missing field", "service", nil, ErrFieldNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Get(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get(%q) error = %v, want %v", tt.key, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %#v, want %#v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEntry_NonObjectHasNoFields(t *testing.T) {
	for _, raw := range []string{`"text"`, `42`, `[1,2]`, `null`} {
		t.Run(raw, func(t *testing.T) {
			e := NewEntry(json.RawMessage(raw))

			if _, err := e.Get("id"); !errors.Is(err, ErrFieldNotFound) {
				t.Errorf("Get on %s: error = %v, want ErrFieldNotFound", raw, err)
			}
			if len(e.Keys()) != 0 {
				t.Errorf("Keys on %s = %v, want none", raw, e.Keys())
			}
			if e.Compact() != raw {
				t.Errorf("Compact on %s = %q", raw, e.Compact())
			}
		})
	}
}

func TestEntry_Text(t *testing.T) {
	e := NewEntry(json.RawMessage(`{"name": "prod", "id": 7, "active": true, "gone": null, "tags": {"a": "b"}}`))

	tests := map[string]string{
		"name":   "prod",
		"id":     "7",
		"active": "true",
		"gone":   "",
		"tags":   `{"a":"b"}`,
	}
	for key, want := range tests {
		got, err := e.Text(key)
		if err != nil {
			t.Fatalf("Text(%q) error = %v", key, err)
		}
		if got != want {
			t.Errorf("Text(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestEntry_Decimal(t *testing.T) {
	e := NewEntry(json.RawMessage(`{"spend": "1234.56", "credit": -0.10, "vendor": "AWS", "flag": true}`))

	spend, err := e.Decimal("spend")
	if err != nil {
		t.Fatalf("Decimal(spend) error = %v", err)
	}
	if spend.String() != "1234.56" {
		t.Errorf("spend = %s, want 1234.56", spend)
	}

	credit, err := e.Decimal("credit")
	if err != nil {
		t.Fatalf("Decimal(credit) error = %v", err)
	}
	if credit.String() != "-0.1" {
		t.Errorf("credit = %s, want -0.1", credit)
	}

	if _, err := e.Decimal("vendor"); err == nil {
		t.Error("Decimal(vendor) should fail for a non-numeric string")
	}
	if _, err := e.Decimal("flag"); err == nil {
		t.Error("Decimal(flag) should fail for a boolean")
	}
	if _, err := e.Decimal("missing"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("Decimal(missing) error = %v, want ErrFieldNotFound", err)
	}
}

func TestEntry_IsImmutable(t *testing.T) {
	raw := json.RawMessage(`{"id":1}`)
	e := NewEntry(raw)
	raw[6] = '9'

	if e.Compact() != `{"id":1}` {
		t.Errorf("entry changed with its source buffer: %s", e.Compact())
	}

	out := e.Raw()
	out[6] = '9'
	if e.Compact() != `{"id":1}` {
		t.Errorf("entry changed through Raw(): %s", e.Compact())
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	e := NewEntry(json.RawMessage(`{"b":1,"a":2}`))

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(b) != `{"b":1,"a":2}` {
		t.Errorf("Marshal = %s", b)
	}
}
