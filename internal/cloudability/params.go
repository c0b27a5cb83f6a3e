package cloudability

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the layout the API expects for start_date and end_date
const DateFormat = "2006-01-02"

// Params is the set of query parameters for one request. A key mapped to nil
// is an explicit null: it is part of the request definition but is left off
// the wire.
type Params map[string]any

// Values encodes the non-null parameters as a query string
func (p Params) Values() url.Values {
	q := url.Values{}
	for k, v := range p {
		if s, ok := formatParam(v); ok {
			q.Set(k, s)
		}
	}
	return q
}

// formatParam renders a parameter value. The boolean result is false for
// nulls: nil, typed nil pointers and nil interfaces. Pointers are followed,
// and slices and arrays are joined element-wise with commas.
func formatParam(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case []string:
		return strings.Join(val, ","), true
	case time.Time:
		return val.Format(DateFormat), true
	case fmt.Stringer:
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return "", false
			}
			// *time.Time and other value receivers format as their element
			if _, ok := rv.Elem().Interface().(fmt.Stringer); ok {
				return formatParam(rv.Elem().Interface())
			}
		}
		return val.String(), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return formatParam(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			if s, ok := formatParam(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	}
	return fmt.Sprintf("%v", v), true
}
