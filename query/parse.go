package query

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	fieldRe    = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)*)\s*:\s*(.*)$`)
	operatorRe = regexp.MustCompile(`^(>=|<=|!=|>|<)(.*)$`)
)

// Parse turns a query string into DNF. Top-level OR separates groups and AND
// separates terms within a group. Terms that do not parse are dropped from
// their group; groups left empty are dropped. An empty query yields an empty
// DNF. A non-empty query that yields no groups is ErrInvalidQuery, and a
// doubled comparator is a *SyntaxError wrapping ErrMalformedOperator.
func Parse(q string) (DNF, error) {
	if strings.TrimSpace(q) == "" {
		return nil, nil
	}

	var (
		dnf    DNF
		clause []string
	)
	flush := func() error {
		if len(clause) == 0 {
			return nil
		}
		group, err := parseGroup(clause)
		clause = nil
		if err != nil {
			return err
		}
		if len(group) > 0 {
			dnf = append(dnf, group)
		}
		return nil
	}

	for _, tok := range Tokenize(q) {
		if strings.EqualFold(tok, "OR") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		clause = append(clause, tok)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(dnf) == 0 {
		return nil, fmt.Errorf("%w: %q resulted in no valid conditions", ErrInvalidQuery, q)
	}
	return dnf, nil
}

func parseGroup(tokens []string) (Group, error) {
	var (
		group Group
		words []string
	)
	flush := func() error {
		term := strings.Join(words, " ")
		words = nil
		if strings.TrimSpace(term) == "" {
			return nil
		}
		cond, ok, err := parseTerm(term)
		if err != nil {
			return err
		}
		if ok {
			group = append(group, expand(cond)...)
		}
		return nil
	}

	for _, tok := range tokens {
		if strings.EqualFold(tok, "AND") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		words = append(words, tok)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return group, nil
}

// expand splits a multi-word free-text condition into one condition per word.
// Only the first word keeps the negation.
func expand(cond Condition) []Condition {
	if !cond.IsDefaultSearch || !strings.ContainsFunc(cond.Value, unicode.IsSpace) {
		return []Condition{cond}
	}
	words := strings.Fields(cond.Value)
	out := make([]Condition, 0, len(words))
	for i, w := range words {
		out = append(out, defaultCondition(w, cond.Negated && i == 0, cond.Term))
	}
	return out
}

// parseTerm parses one term. ok is false when the term should be dropped
// from its group; err is set only for input that must abort the query.
func parseTerm(term string) (cond Condition, ok bool, err error) {
	original := term
	term = strings.TrimSpace(term)
	negated := false

	if strings.HasPrefix(term, "-") && strings.TrimSpace(term[1:]) != "" {
		negated = true
		term = strings.TrimLeftFunc(term[1:], unicode.IsSpace)
	} else if len(term) > 4 && strings.EqualFold(term[:3], "not") &&
		unicode.IsSpace(rune(term[3])) && strings.TrimSpace(term[4:]) != "" {
		negated = true
		term = strings.TrimLeftFunc(term[4:], unicode.IsSpace)
	}

	if term == "" {
		return Condition{}, false, nil
	}
	if !negated {
		switch strings.ToUpper(term) {
		case "AND", "OR", "NOT":
			return Condition{}, false, nil
		}
	}

	m := fieldRe.FindStringSubmatch(term)
	if m == nil {
		value, _ := unquote(term)
		if strings.ContainsFunc(value, unicode.IsSpace) {
			// expanded per word by the caller
			return Condition{
				Field:           DefaultField,
				Comparator:      OpEqual,
				Value:           value,
				Negated:         negated,
				IsDefaultSearch: true,
				Term:            original,
			}, true, nil
		}
		return defaultCondition(value, negated, original), true, nil
	}

	field, opValue := m[1], strings.TrimSpace(m[2])
	op, raw := OpEqual, opValue
	if om := operatorRe.FindStringSubmatch(opValue); om != nil {
		rest := strings.TrimSpace(om[2])
		if rest != "" && strings.ContainsRune("><=!", rune(rest[0])) {
			return Condition{}, false, &SyntaxError{Term: original, Err: ErrMalformedOperator}
		}
		op, raw = Comparator(om[1]), rest
	}
	// "field:" and "field:>" carry no value; an explicit "" or '' does.
	if raw == "" {
		return Condition{}, false, nil
	}

	if strings.EqualFold(field, "tag") {
		field = "tags"
	}
	cond = Condition{
		Field:      field,
		Comparator: op,
		Negated:    negated,
		Term:       original,
	}

	value, quote := unquote(raw)
	switch {
	case raw == "*" && op == OpEqual:
		cond.IsExists = true
	case isPrefix(value):
		cond.IsPrefix = true
		value = value[:len(value)-1]
	}
	cond.Value = unescape(value, quote)
	return cond, true, nil
}

func defaultCondition(word string, negated bool, term string) Condition {
	cond := Condition{
		Field:           DefaultField,
		Comparator:      OpEqual,
		Negated:         negated,
		IsDefaultSearch: true,
		Term:            term,
	}
	if isPrefix(word) {
		cond.IsPrefix = true
		word = word[:len(word)-1]
	}
	cond.Value = unescape(word, 0)
	return cond
}

func isPrefix(v string) bool {
	return strings.HasSuffix(v, "*") && !strings.HasSuffix(v, `\*`)
}

// unescape resolves backslash escapes the way a POSIX shell does. Unquoted,
// a backslash makes the next character literal and a trailing one is dropped.
// Inside double quotes only \\, \" and \* are escapes; single quotes keep
// everything but \*.
func unescape(v string, quote byte) string {
	if !strings.ContainsRune(v, '\\') {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 == len(v) {
			if quote != 0 {
				b.WriteByte(c)
			}
			break
		}
		next := v[i+1]
		switch {
		case next == '*',
			quote == 0,
			quote == '"' && (next == '\\' || next == '"'):
			i++
			b.WriteByte(next)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unquote strips matching outer quotes and reports which quote it removed.
func unquote(v string) (string, byte) {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1], first
		}
	}
	return v, 0
}
