package matching

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var canonicalOptions = ojg.Options{Sort: true}

// DecodeJSON parses data as JSON. It returns false for empty or invalid input;
// that is not an error, callers fall back to treating the bytes as opaque.
func DecodeJSON(data []byte) (any, bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}
	v, err := oj.Parse(data)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Canonical renders v as compact JSON with object keys sorted.
func Canonical(v any) []byte {
	return []byte(oj.JSON(v, &canonicalOptions))
}

// Lookup resolves a dot path such as "variables.id" or "items.0.sku" against
// decoded JSON (or any map[string]any tree). Numeric segments index arrays.
// A path that resolves to JSON null is reported as not found.
func Lookup(data any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	x := jp.R()
	for _, seg := range strings.Split(path, ".") {
		if n, err := strconv.Atoi(seg); err == nil {
			x = x.N(n)
		} else {
			x = x.C(seg)
		}
	}

	v := x.First(data)
	if v == nil {
		return nil, false
	}
	return v, true
}

// Stringify renders a decoded JSON value as a fingerprint fragment.
// Scalars use their natural text form; objects and arrays use canonical JSON.
// Returns "" for nil.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []byte:
		return string(t)
	default:
		return string(Canonical(t))
	}
}
