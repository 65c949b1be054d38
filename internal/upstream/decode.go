package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

var wrapperKeys = []string{"value", "data", "listings", "results"}

func decodeAny(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return v, nil
}

// DecodeRecords accepts a JSON array of records, an envelope holding the
// array under a well-known key, or an object of records keyed by id.
func DecodeRecords(b []byte) ([]Record, error) {
	v, err := decodeAny(b)
	if err != nil {
		return nil, err
	}
	return records(v), nil
}

func records(v any) []Record {
	switch t := v.(type) {
	case []any:
		out := make([]Record, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		for _, k := range wrapperKeys {
			if arr, ok := t[k].([]any); ok {
				return records(arr)
			}
		}
		if len(t) == 0 {
			return []Record{}
		}
		keys := make([]string, 0, len(t))
		for k, item := range t {
			if _, ok := item.(map[string]any); !ok {
				return []Record{t}
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Record, 0, len(keys))
		for _, k := range keys {
			out = append(out, t[k].(map[string]any))
		}
		return out
	}
	return []Record{}
}

// DecodeRecord reads a single record. null, an empty object or an empty
// array mean the provider has no such listing.
func DecodeRecord(b []byte) (Record, error) {
	v, err := decodeAny(b)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil, ErrNotFound
		}
		return t, nil
	case []any:
		rs := records(t)
		if len(rs) == 0 {
			return nil, ErrNotFound
		}
		return rs[0], nil
	}
	return nil, ErrNotFound
}

// DecodeStrings reads a list of names: a JSON array of strings or of objects
// carrying a name field, or an object whose values are names.
func DecodeStrings(b []byte, nameKeys ...string) ([]string, error) {
	v, err := decodeAny(b)
	if err != nil {
		return nil, err
	}
	var out []string
	add := func(item any) {
		switch it := item.(type) {
		case string:
			out = append(out, it)
		case map[string]any:
			for _, k := range nameKeys {
				if s, ok := it[k].(string); ok && s != "" {
					out = append(out, s)
					return
				}
			}
		}
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			add(item)
		}
	case map[string]any:
		for _, item := range t {
			add(item)
		}
		sort.Strings(out)
	}
	return out, nil
}

// DecodeLabels reads a code → label object.
func DecodeLabels(b []byte) (map[string]string, error) {
	v, err := decodeAny(b)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if m, ok := v.(map[string]any); ok {
		for k, item := range m {
			switch it := item.(type) {
			case string:
				out[k] = it
			case map[string]any:
				if s, ok := it["name"].(string); ok {
					out[k] = s
				}
			}
		}
	}
	return out, nil
}

// Number reads a numeric field from a decoded record.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}
