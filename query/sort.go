package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"commerce-sim/timeutil"
)

// SortableFields are the fields Sort accepts.
var SortableFields = []string{
	"id", "email", "first_name", "last_name", "orders_count", "state",
	"total_spent", "created_at", "updated_at",
}

type sortKind int

const (
	sortString sortKind = iota
	sortInt
	sortDecimal
	sortTime
)

func kindOf(field string) sortKind {
	switch field {
	case "orders_count":
		return sortInt
	case "total_spent":
		return sortDecimal
	case "created_at", "updated_at":
		return sortTime
	}
	return sortString
}

type sortKey struct {
	missing bool
	s       string
	n       int64
	d       decimal.Decimal
	t       time.Time
}

// ParseSort validates a "<field> <ASC|DESC>" order spec.
func ParseSort(spec string) (field string, desc bool, err error) {
	parts := strings.Fields(spec)
	if len(parts) != 2 {
		return "", false, fmt.Errorf("%w: expected 'field_name DIRECTION', got %q", ErrInvalidSort, spec)
	}
	field = parts[0]
	valid := false
	for _, f := range SortableFields {
		if f == field {
			valid = true
			break
		}
	}
	if !valid {
		return "", false, fmt.Errorf("%w: invalid field for ordering: %s", ErrInvalidSort, field)
	}
	switch strings.ToUpper(parts[1]) {
	case "ASC":
	case "DESC":
		desc = true
	default:
		return "", false, fmt.Errorf("%w: invalid order direction: %s, must be ASC or DESC", ErrInvalidSort, parts[1])
	}
	return field, desc, nil
}

// Sort orders a copy of recs by spec. The sort is stable. Missing or
// unparsable values rank lowest, so they come first ascending and last
// descending. An empty spec returns the records unchanged.
func Sort(recs []Record, spec string) ([]Record, error) {
	out := append([]Record(nil), recs...)
	if strings.TrimSpace(spec) == "" || len(out) == 0 {
		return out, nil
	}
	field, desc, err := ParseSort(spec)
	if err != nil {
		return nil, err
	}

	kind := kindOf(field)
	keys := make([]sortKey, len(out))
	idx := make([]int, len(out))
	for i, rec := range out {
		idx[i] = i
		keys[i] = keyFor(rec, field, kind)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		c := compareKeys(keys[idx[a]], keys[idx[b]], kind)
		if desc {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]Record, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted, nil
}

func keyFor(rec Record, field string, kind sortKind) sortKey {
	raw, ok := rec.Lookup(field)
	if !ok {
		return sortKey{missing: true}
	}
	switch kind {
	case sortInt:
		if n, ok := toInt(raw); ok {
			return sortKey{n: n}
		}
	case sortDecimal:
		if d, err := decimal.NewFromString(strings.TrimSpace(stringify(raw))); err == nil {
			return sortKey{d: d}
		}
	case sortTime:
		if t, ok := timeutil.Parse(stringify(raw)); ok {
			return sortKey{t: t}
		}
	default:
		return sortKey{s: strings.ToLower(stringify(raw))}
	}
	return sortKey{missing: true}
}

func compareKeys(a, b sortKey, kind sortKind) int {
	switch {
	case a.missing && b.missing:
		return 0
	case a.missing:
		return -1
	case b.missing:
		return 1
	}
	switch kind {
	case sortInt:
		return cmpInt(a.n, b.n)
	case sortDecimal:
		return a.d.Cmp(b.d)
	case sortTime:
		return cmpTime(a.t, b.t)
	}
	return strings.Compare(a.s, b.s)
}
