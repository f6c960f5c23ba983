package query

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"commerce-sim/timeutil"
)

var nonWordRe = regexp.MustCompile(`\W+`)

// Matches reports whether rec satisfies every condition of at least one
// group. An empty DNF matches everything.
func Matches(rec Record, dnf DNF) bool {
	if len(dnf) == 0 {
		return true
	}
	for _, group := range dnf {
		if len(group) == 0 {
			continue
		}
		if matchesGroup(rec, group) {
			return true
		}
	}
	return false
}

func matchesGroup(rec Record, group Group) bool {
	for _, cond := range group {
		if !EvaluateCondition(rec, cond) {
			return false
		}
	}
	return true
}

// Filter returns the records matching dnf, in input order.
func Filter(recs []Record, dnf DNF) []Record {
	if len(dnf) == 0 {
		return recs
	}
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		if Matches(rec, dnf) {
			out = append(out, rec)
		}
	}
	return out
}

// EvaluateCondition applies one condition to rec. Comparison is typed by
// field: created_at/updated_at as timestamps, orders_count as an integer,
// total_spent as a decimal, tags as a set, everything else as a
// case-insensitive string.
func EvaluateCondition(rec Record, cond Condition) bool {
	var matched bool
	if cond.IsDefaultSearch {
		matched = matchDefault(rec, cond)
	} else {
		matched = matchField(rec, cond)
	}
	if cond.Negated {
		return !matched
	}
	return matched
}

func matchDefault(rec Record, cond Condition) bool {
	needle := strings.ToLower(cond.Value)
	for _, field := range DefaultFields {
		raw, ok := rec.Lookup(field)
		if !ok {
			continue
		}
		hay := strings.ToLower(stringify(raw))
		if cond.IsPrefix {
			for _, word := range nonWordRe.Split(hay, -1) {
				if word != "" && strings.HasPrefix(word, needle) {
					return true
				}
			}
			continue
		}
		if strings.Contains(hay, needle) {
			return true
		}
	}
	return false
}

func matchField(rec Record, cond Condition) bool {
	raw, ok := rec.Lookup(cond.Field)
	if cond.IsExists {
		return ok && strings.TrimSpace(stringify(raw)) != ""
	}
	if !ok {
		return cond.Comparator == OpEqual && isNullLiteral(cond.Value)
	}

	switch cond.Field {
	case "created_at", "updated_at":
		return matchTime(stringify(raw), cond)
	case "orders_count":
		have, ok1 := toInt(raw)
		want, ok2 := toInt(cond.Value)
		if !ok1 || !ok2 {
			return false
		}
		return compareOrdered(cmpInt(have, want), cond.Comparator)
	case "total_spent":
		have, err1 := decimal.NewFromString(strings.TrimSpace(stringify(raw)))
		want, err2 := decimal.NewFromString(strings.TrimSpace(cond.Value))
		if err1 != nil || err2 != nil {
			return false
		}
		return compareOrdered(have.Cmp(want), cond.Comparator)
	case "tags":
		return matchTags(stringify(raw), cond)
	default:
		return matchString(stringify(raw), cond)
	}
}

func isNullLiteral(v string) bool {
	switch strings.ToLower(v) {
	case "", "null", "none":
		return true
	}
	return false
}

// matchTime compares calendar dates only when the query value is a bare date
// and the comparator is equality or inequality.
func matchTime(have string, cond Condition) bool {
	a, ok1 := timeutil.Parse(have)
	b, ok2 := timeutil.Parse(cond.Value)
	if !ok1 || !ok2 {
		return false
	}
	dateOnly := timeutil.IsDateOnly(cond.Value)
	switch cond.Comparator {
	case OpEqual:
		if dateOnly {
			return timeutil.SameDate(a, b)
		}
		return a.Equal(b)
	case OpNotEqual:
		if dateOnly {
			return !timeutil.SameDate(a, b)
		}
		return !a.Equal(b)
	default:
		return compareOrdered(cmpTime(a, b), cond.Comparator)
	}
}

func matchTags(raw string, cond Condition) bool {
	want := strings.ToLower(cond.Value)
	tags := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags[t] = true
		}
	}
	switch {
	case cond.IsPrefix:
		for t := range tags {
			if strings.HasPrefix(t, want) {
				return true
			}
		}
		return false
	case cond.Comparator == OpEqual:
		return tags[want]
	case cond.Comparator == OpNotEqual:
		return !tags[want]
	}
	return false
}

// matchString falls back to lexicographic order for ordering comparators.
// Nothing relies on that for names or emails; it is kept for parity with the
// recorded behaviour of the search API.
func matchString(raw string, cond Condition) bool {
	have, want := strings.ToLower(raw), strings.ToLower(cond.Value)
	if cond.IsPrefix {
		return strings.HasPrefix(have, want)
	}
	switch cond.Comparator {
	case OpEqual:
		return have == want
	case OpNotEqual:
		return have != want
	default:
		return compareOrdered(strings.Compare(have, want), cond.Comparator)
	}
}

func compareOrdered(c int, op Comparator) bool {
	switch op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpGreater:
		return c > 0
	case OpLess:
		return c < 0
	case OpGreaterEqual:
		return c >= 0
	case OpLessEqual:
		return c <= 0
	}
	return false
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpTime(a, b time.Time) int {
	return a.Compare(b)
}
