package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is a decoded JSON object. Nested objects are map[string]any and
// arrays are []any.
type Record map[string]any

// Lookup follows a dotted path through nested objects; numeric segments index
// arrays. A nil value anywhere along the path is reported as missing.
func (r Record) Lookup(path string) (any, bool) {
	var current any = map[string]any(r)
	for _, key := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			current = node[key]
		case Record:
			current = node[key]
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
		if current == nil {
			return nil, false
		}
	}
	return current, true
}

// stringify renders a scalar the way it appears in the source document.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// toInt accepts integers, integral floats and numeric strings.
func toInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		if val != float64(int64(val)) {
			return 0, false
		}
		return int64(val), true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(stringify(v)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
