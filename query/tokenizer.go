package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	keywordRe = regexp.MustCompile(`(?i)(\s+|^)\b(AND|OR|NOT)\b(\s+|$)`)

	errUnbalancedQuote = errors.New("unbalanced quote")
	errDanglingEscape  = errors.New("dangling escape")
)

// placeholder marks a protected quoted phrase. NUL bytes are stripped from
// the query first so a placeholder never collides with input text.
func placeholder(i int) string {
	return fmt.Sprintf("\x00%d\x00", i)
}

// Tokenize splits a query into words. Quoted phrases stay whole and keep their
// quote characters, and keywords inside quotes are never padded or split.
// Backslash escapes are kept in the token for the term parser. It never
// fails: unbalanced quotes fall back to a plain whitespace split.
func Tokenize(q string) []string {
	q = strings.ReplaceAll(q, "\x00", "")

	var (
		protected strings.Builder
		phrases   []string
		rest      int
	)
	for _, span := range quotedSpans(q) {
		protected.WriteString(q[span[0]:span[1]])
		protected.WriteString(placeholder(len(phrases)))
		phrases = append(phrases, q[span[1]:span[2]])
		rest = span[2]
	}
	protected.WriteString(q[rest:])

	padded := keywordRe.ReplaceAllString(protected.String(), " ${2} ")
	padded = strings.Join(strings.Fields(padded), " ")
	for i, phrase := range phrases {
		padded = strings.Replace(padded, placeholder(i), phrase, 1)
	}

	tokens, err := lex(padded)
	if err != nil {
		tokens = strings.Fields(q)
	}

	out := tokens[:0]
	for _, tok := range tokens {
		if strings.TrimSpace(tok) != "" {
			out = append(out, tok)
		}
	}
	return out
}

// quotedSpans finds the closed quoted phrases of q. Each span is
// {start of preceding text, phrase start, phrase end}. A backslash outside
// quotes escapes the next byte, so an escaped quote never opens a phrase.
func quotedSpans(q string) [][3]int {
	var spans [][3]int
	prev := 0
	for i := 0; i < len(q); i++ {
		switch q[i] {
		case '\\':
			i++
		case '"', '\'':
			end := strings.IndexByte(q[i+1:], q[i])
			if end < 0 {
				return spans
			}
			end += i + 2
			spans = append(spans, [3]int{prev, i, end})
			prev = end
			i = end - 1
		}
	}
	return spans
}

// lex is a shell-style splitter: whitespace separates words unless quoted or
// escaped.
func lex(s string) ([]string, error) {
	var (
		tokens  []string
		buf     strings.Builder
		quote   rune
		inWord  bool
		escaped bool
	)
	flush := func() {
		if inWord {
			tokens = append(tokens, buf.String())
			buf.Reset()
			inWord = false
		}
	}

	for _, r := range s {
		switch {
		case escaped:
			buf.WriteRune(r)
			escaped = false
		case quote != 0:
			buf.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\\':
			buf.WriteRune(r)
			inWord = true
			escaped = true
		case r == '"' || r == '\'':
			buf.WriteRune(r)
			inWord = true
			quote = r
		case unicode.IsSpace(r):
			flush()
		default:
			buf.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errUnbalancedQuote
	}
	if escaped {
		return nil, errDanglingEscape
	}
	flush()
	return tokens, nil
}
