package payment

import (
	"encoding/json"
	"strconv"
	"strings"
)

// containers are the envelopes providers wrap the actual record in.
var containers = []string{"payment", "order", "data"}

// field is one alias of a logical value, located by a path into a payload.
// Tag names the alias in logs so a new provider dialect is a new rule, not a new branch.
type field struct {
	tag  string
	path []string
}

// topLevel returns one rule per alias at the root of the payload.
func topLevel(names ...string) []field {
	rules := make([]field, 0, len(names))
	for _, n := range names {
		rules = append(rules, field{tag: n, path: []string{n}})
	}
	return rules
}

// nested returns the root rules followed by the same aliases inside every container.
func nested(names ...string) []field {
	rules := topLevel(names...)
	for _, c := range containers {
		for _, n := range names {
			rules = append(rules, field{tag: c + "." + n, path: []string{c, n}})
		}
	}
	return rules
}

// at builds a rule for an explicit path.
func at(path ...string) field {
	return field{tag: strings.Join(path, "."), path: path}
}

// lookup walks the path and returns the value found, if any.
func (f field) lookup(raw map[string]any) (any, bool) {
	var cur any = raw
	for _, key := range f.path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// first returns the first non-empty scalar matched by rules, with its tag.
func first(raw map[string]any, rules []field) (string, string) {
	return firstWhere(raw, rules, func(s string) bool { return s != "" })
}

// firstWhere returns the first scalar matched by rules that keep accepts.
func firstWhere(raw map[string]any, rules []field, keep func(string) bool) (string, string) {
	for _, r := range rules {
		v, ok := r.lookup(raw)
		if !ok {
			continue
		}
		if s := strings.TrimSpace(scalar(v)); keep(s) {
			return s, r.tag
		}
	}
	return "", ""
}

// all returns every distinct non-empty scalar matched by rules, in rule order.
func all(raw map[string]any, rules []field) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rules {
		v, ok := r.lookup(raw)
		if !ok {
			continue
		}
		s := strings.TrimSpace(scalar(v))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// scalar coerces a decoded JSON scalar to its string form.
// Objects and arrays yield an empty string.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// asObject converts the loosely typed inputs the normalizer accepts into a JSON object.
func asObject(raw any) (map[string]any, bool) {
	switch t := raw.(type) {
	case map[string]any:
		return t, true
	case json.RawMessage:
		return decodeObject(t)
	case []byte:
		return decodeObject(t)
	case string:
		return decodeObject([]byte(t))
	default:
		return nil, false
	}
}

func decodeObject(b []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
