package yahoo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Yahoo encodes collections as objects keyed by stringified indexes with a
// sibling "count" field: {"0": {...}, "1": {...}, "count": 2}. The helpers
// here validate that shape before any indexing so a malformed payload fails
// with a descriptive decode error instead of a panic or a silent skip.

// collection decodes a numeric-keyed object into ordered raw entries.
func collection(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("collection is not an object: %w", err)
	}

	countRaw, ok := obj["count"]
	if !ok {
		return nil, fmt.Errorf("collection is missing count")
	}
	var count int
	if err := json.Unmarshal(countRaw, &count); err != nil {
		return nil, fmt.Errorf("collection count is not a number: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("collection count %d is negative", count)
	}

	entries := make([]json.RawMessage, 0, count)
	for i := 0; i < count; i++ {
		entry, ok := obj[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("collection count is %d but index %d is missing", count, i)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// wrapped unwraps one level of {"<name>": {...}} nesting and decodes the
// inner value into out.
func wrapped(raw json.RawMessage, name string, out interface{}) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("entry is not an object: %w", err)
	}
	inner, ok := obj[name]
	if !ok {
		return fmt.Errorf("entry is missing %q", name)
	}
	if err := json.Unmarshal(inner, out); err != nil {
		return fmt.Errorf("decoding %q: %w", name, err)
	}
	return nil
}

// flexInt is an integer Yahoo may serialize as either a number or a string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parsing integer %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// flexFloat is a float Yahoo may serialize as either a number or a string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing float %q: %w", s, err)
	}
	*f = flexFloat(n)
	return nil
}
