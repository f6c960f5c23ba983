package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerm(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		want   Condition
		wantOK bool
	}{
		{
			name:   "field equality",
			term:   "email:bob@example.com",
			want:   Condition{Field: "email", Comparator: OpEqual, Value: "bob@example.com"},
			wantOK: true,
		},
		{
			name:   "comparator",
			term:   "orders_count:>=5",
			want:   Condition{Field: "orders_count", Comparator: OpGreaterEqual, Value: "5"},
			wantOK: true,
		},
		{
			name:   "space around colon",
			term:   "email : bob@example.com",
			want:   Condition{Field: "email", Comparator: OpEqual, Value: "bob@example.com"},
			wantOK: true,
		},
		{
			name:   "dash negation",
			term:   "-tag:spam",
			want:   Condition{Field: "tags", Comparator: OpEqual, Value: "spam", Negated: true},
			wantOK: true,
		},
		{
			name:   "NOT negation",
			term:   "NOT state:disabled",
			want:   Condition{Field: "state", Comparator: OpEqual, Value: "disabled", Negated: true},
			wantOK: true,
		},
		{
			name:   "lowercase not negation",
			term:   "not state:disabled",
			want:   Condition{Field: "state", Comparator: OpEqual, Value: "disabled", Negated: true},
			wantOK: true,
		},
		{
			name:   "exists",
			term:   "phone:*",
			want:   Condition{Field: "phone", Comparator: OpEqual, Value: "*", IsExists: true},
			wantOK: true,
		},
		{
			name:   "prefix",
			term:   "phone:+1*",
			want:   Condition{Field: "phone", Comparator: OpEqual, Value: "+1", IsPrefix: true},
			wantOK: true,
		},
		{
			name:   "escaped star is literal",
			term:   `note:5\*`,
			want:   Condition{Field: "note", Comparator: OpEqual, Value: "5*"},
			wantOK: true,
		},
		{
			name:   "escaped space",
			term:   `first_name:Bob\ Smith`,
			want:   Condition{Field: "first_name", Comparator: OpEqual, Value: "Bob Smith"},
			wantOK: true,
		},
		{
			name:   "escaped quote",
			term:   `last_name:O\'Brien`,
			want:   Condition{Field: "last_name", Comparator: OpEqual, Value: "O'Brien"},
			wantOK: true,
		},
		{
			name:   "escaped backslash",
			term:   `note:a\\b`,
			want:   Condition{Field: "note", Comparator: OpEqual, Value: `a\b`},
			wantOK: true,
		},
		{
			name:   "backslash inside double quotes is literal",
			term:   `note:"C:\path"`,
			want:   Condition{Field: "note", Comparator: OpEqual, Value: `C:\path`},
			wantOK: true,
		},
		{
			name:   "prefix after escape",
			term:   `last_name:O\'Br*`,
			want:   Condition{Field: "last_name", Comparator: OpEqual, Value: "O'Br", IsPrefix: true},
			wantOK: true,
		},
		{
			name:   "quotes are stripped",
			term:   `first_name:"Bob Smith"`,
			want:   Condition{Field: "first_name", Comparator: OpEqual, Value: "Bob Smith"},
			wantOK: true,
		},
		{
			name:   "explicit empty value",
			term:   `phone:""`,
			want:   Condition{Field: "phone", Comparator: OpEqual, Value: ""},
			wantOK: true,
		},
		{
			name:   "nested field",
			term:   "default_address.city:Ottawa",
			want:   Condition{Field: "default_address.city", Comparator: OpEqual, Value: "Ottawa"},
			wantOK: true,
		},
		{
			name:   "default search",
			term:   "bob",
			want:   Condition{Field: DefaultField, Comparator: OpEqual, Value: "bob", IsDefaultSearch: true},
			wantOK: true,
		},
		{
			name:   "default prefix search",
			term:   "bo*",
			want:   Condition{Field: DefaultField, Comparator: OpEqual, Value: "bo", IsDefaultSearch: true, IsPrefix: true},
			wantOK: true,
		},
		{
			name:   "bare dash is not negation",
			term:   "-",
			want:   Condition{Field: DefaultField, Comparator: OpEqual, Value: "-", IsDefaultSearch: true},
			wantOK: true,
		},
		{name: "missing value", term: "email:"},
		{name: "operator without value", term: "orders_count:>"},
		{name: "bare NOT", term: "NOT"},
		{name: "bare AND", term: "and"},
		{name: "bare OR", term: "OR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := parseTerm(tt.term)
			require.NoError(t, err)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			tt.want.Term = tt.term
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTermMalformedOperator(t *testing.T) {
	for _, term := range []string{"orders_count:>=<5", "orders_count:>>5", "orders_count:<=!5", "orders_count:!= =5"} {
		_, _, err := parseTerm(term)
		require.Error(t, err, term)
		assert.True(t, errors.Is(err, ErrMalformedOperator))

		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr))
		assert.Equal(t, term, syntaxErr.Term)
	}
}

func TestParse(t *testing.T) {
	t.Run("AND group", func(t *testing.T) {
		dnf, err := Parse("orders_count:>5 AND tag:VIP")
		require.NoError(t, err)
		require.Len(t, dnf, 1)
		require.Len(t, dnf[0], 2)
		assert.Equal(t, "orders_count", dnf[0][0].Field)
		assert.Equal(t, OpGreater, dnf[0][0].Comparator)
		assert.Equal(t, "5", dnf[0][0].Value)
		assert.Equal(t, "tags", dnf[0][1].Field)
		assert.Equal(t, "VIP", dnf[0][1].Value)
	})

	t.Run("OR splits groups", func(t *testing.T) {
		dnf, err := Parse("state:enabled AND tag:vip OR orders_count:0")
		require.NoError(t, err)
		require.Len(t, dnf, 2)
		assert.Len(t, dnf[0], 2)
		assert.Len(t, dnf[1], 1)
	})

	t.Run("lowercase keywords", func(t *testing.T) {
		dnf, err := Parse("tag:a or tag:b and state:enabled")
		require.NoError(t, err)
		require.Len(t, dnf, 2)
		assert.Len(t, dnf[1], 2)
	})

	t.Run("multi-word name expands per word", func(t *testing.T) {
		dnf, err := Parse("Bob Norman")
		require.NoError(t, err)
		require.Len(t, dnf, 1)
		require.Len(t, dnf[0], 2)
		assert.Equal(t, "Bob", dnf[0][0].Value)
		assert.Equal(t, "Norman", dnf[0][1].Value)
		assert.True(t, dnf[0][0].IsDefaultSearch)
		assert.True(t, dnf[0][1].IsDefaultSearch)
	})

	t.Run("negation only on first expanded word", func(t *testing.T) {
		dnf, err := Parse("-Bob Norman")
		require.NoError(t, err)
		require.Len(t, dnf[0], 2)
		assert.True(t, dnf[0][0].Negated)
		assert.False(t, dnf[0][1].Negated)
	})

	t.Run("quoted phrase expands with trailing prefix", func(t *testing.T) {
		dnf, err := Parse(`"Bob Nor*"`)
		require.NoError(t, err)
		require.Len(t, dnf[0], 2)
		assert.False(t, dnf[0][0].IsPrefix)
		assert.True(t, dnf[0][1].IsPrefix)
		assert.Equal(t, "Nor", dnf[0][1].Value)
	})

	t.Run("NOT keyword joins following term", func(t *testing.T) {
		dnf, err := Parse("tag:vip AND NOT state:disabled")
		require.NoError(t, err)
		require.Len(t, dnf[0], 2)
		assert.True(t, dnf[0][1].Negated)
		assert.Equal(t, "state", dnf[0][1].Field)
	})

	t.Run("invalid term is dropped from its group", func(t *testing.T) {
		dnf, err := Parse("email: AND tag:vip")
		require.NoError(t, err)
		require.Len(t, dnf, 1)
		require.Len(t, dnf[0], 1)
		assert.Equal(t, "tags", dnf[0][0].Field)
	})

	t.Run("empty group is dropped", func(t *testing.T) {
		dnf, err := Parse("email: OR tag:vip")
		require.NoError(t, err)
		require.Len(t, dnf, 1)
	})

	t.Run("dangling OR", func(t *testing.T) {
		dnf, err := Parse("tag:vip OR")
		require.NoError(t, err)
		require.Len(t, dnf, 1)
	})

	t.Run("empty query is empty DNF", func(t *testing.T) {
		dnf, err := Parse("   ")
		require.NoError(t, err)
		assert.Empty(t, dnf)
	})

	for _, q := range []string{"email:", "AND", "NOT", "email: OR phone:"} {
		t.Run("no valid groups: "+q, func(t *testing.T) {
			_, err := Parse(q)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}

	t.Run("malformed operator aborts", func(t *testing.T) {
		_, err := Parse("tag:vip OR orders_count:>=<5")
		assert.ErrorIs(t, err, ErrMalformedOperator)
	})
}
