// Package query implements the customer search language: a tokenizer, a
// parser producing disjunctive normal form, and an evaluator over generic
// records, plus the sort, paging and projection helpers search needs.
//
// A query such as
//
//	orders_count:>5 AND tag:vip OR -email:*@example.com
//
// parses into a DNF: a list of groups that are ORed, each a list of
// conditions that are ANDed. Everything here works on snapshots and holds no
// state between calls.
package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery means a non-empty query produced no usable conditions.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrMalformedOperator is returned for doubled comparators such as "field:>=<5".
	ErrMalformedOperator = errors.New("malformed operator sequence")
	ErrInvalidSort       = errors.New("invalid sort order")
	ErrInvalidPageToken  = errors.New("invalid page token")
)

// SyntaxError carries the term that failed to parse.
type SyntaxError struct {
	Term string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v in query token: %s", e.Err, e.Term)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type Comparator string

const (
	OpEqual        Comparator = ":"
	OpNotEqual     Comparator = "!="
	OpGreater      Comparator = ">"
	OpLess         Comparator = "<"
	OpGreaterEqual Comparator = ">="
	OpLessEqual    Comparator = "<="
)

// DefaultField marks a free-text condition matched against DefaultFields.
const DefaultField = "_all_"

// DefaultFields are searched by terms that name no field.
var DefaultFields = []string{"first_name", "last_name", "email", "tags", "phone"}

// Condition is a single DNF leaf.
type Condition struct {
	Field           string
	Comparator      Comparator
	Value           string
	Negated         bool
	IsDefaultSearch bool
	IsPrefix        bool
	IsExists        bool
	// Term is the source text the condition came from.
	Term string
}

// Group is a conjunction of conditions.
type Group []Condition

// DNF is a disjunction of groups. An empty DNF matches every record.
type DNF []Group
