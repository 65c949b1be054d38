package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// record is a raw listing with its nested layers flattened into lookup order.
type record struct {
	layers []map[string]any
}

func newRecord(raw map[string]any) record {
	r := record{layers: []map[string]any{raw}}
	for i := 0; i < len(r.layers); i++ {
		for _, k := range nestedKeys {
			if m, ok := r.layers[i][k].(map[string]any); ok {
				r.layers = append(r.layers, m)
			}
		}
		if len(r.layers) > 8 {
			break
		}
	}
	return r
}

// lookup returns the first present value for f. Aliases take priority over
// layers, so a partner key nested under data beats a mock key at the top.
func (r record) lookup(f field) (any, bool) {
	for _, alias := range aliases[f] {
		for _, layer := range r.layers {
			if v, ok := get(layer, alias); ok && present(v) {
				return v, true
			}
		}
	}
	return nil, false
}

func (r record) str(f field) string {
	v, ok := r.lookup(f)
	if !ok {
		return ""
	}
	return toString(v)
}

func (r record) num(f field) (float64, bool) {
	v, ok := r.lookup(f)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (r record) integer(f field) (int, bool) {
	n, ok := r.num(f)
	if !ok {
		return 0, false
	}
	return int(math.Round(n)), true
}

func (r record) flag(f field) bool {
	v, ok := r.lookup(f)
	if !ok {
		return false
	}
	return toBool(v)
}

func get(m map[string]any, key string) (any, bool) {
	if !strings.Contains(key, ".") {
		v, ok := m[key]
		return v, ok
	}
	head, rest, _ := strings.Cut(key, ".")
	sub, ok := m[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return get(sub, rest)
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	}
	return true
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "y", "yes", "true", "1", "t":
			return true
		}
		return false
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return false
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
