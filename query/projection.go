package query

import "strings"

// Project copies the requested dotted paths from rec into a new record,
// rebuilding the nesting. Missing paths are present with a nil value. When a
// path crosses a list, the rest of the path is projected from every element.
// A nil fields slice returns rec unchanged; an empty one keeps only "id".
func Project(rec Record, fields []string) Record {
	if rec == nil {
		return Record{}
	}
	if fields == nil {
		return rec
	}
	if len(fields) == 0 {
		if id, ok := rec["id"]; ok {
			return Record{"id": id}
		}
		return Record{}
	}

	out := map[string]any{}
	for _, path := range fields {
		projectInto(out, map[string]any(rec), strings.Split(path, "."))
	}
	return Record(out)
}

func projectInto(dest map[string]any, src any, keys []string) {
	key := keys[0]
	var value any
	switch node := src.(type) {
	case map[string]any:
		value = node[key]
	case Record:
		value = node[key]
	}
	if len(keys) == 1 {
		dest[key] = value
		return
	}

	if list, ok := value.([]any); ok {
		projected, _ := dest[key].([]any)
		if len(projected) != len(list) {
			projected = make([]any, len(list))
		}
		for i, elem := range list {
			sub, ok := projected[i].(map[string]any)
			if !ok {
				sub = map[string]any{}
				projected[i] = sub
			}
			projectInto(sub, elem, keys[1:])
		}
		dest[key] = projected
		return
	}

	sub, ok := dest[key].(map[string]any)
	if !ok {
		sub = map[string]any{}
		dest[key] = sub
	}
	projectInto(sub, value, keys[1:])
}
