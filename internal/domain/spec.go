package domain

import "encoding/json"

// ParseSpecAttributes parses a product spec blob into a key/value attribute
// map. An empty blob yields an empty map and no error; a non-empty blob that
// is not a JSON object is a parse error, which callers treat as "all
// attributes absent" plus a warning.
func ParseSpecAttributes(blob string) (map[string]any, error) {
	if len(blob) == 0 {
		return map[string]any{}, nil
	}
	attrs := map[string]any{}
	if err := json.Unmarshal([]byte(blob), &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// SpecString reads a string attribute; ok is false when absent or not a string.
func SpecString(attrs map[string]any, key string) (string, bool) {
	v, ok := attrs[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SpecInt reads a numeric attribute as an int; ok is false when absent or
// not a number. JSON numbers decode as float64, truncation matches the
// original integer semantics.
func SpecInt(attrs map[string]any, key string) (int, bool) {
	v, ok := attrs[key]
	if !ok || v == nil {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}
