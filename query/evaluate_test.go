package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bob() Record {
	return Record{
		"id":           "1001",
		"email":        "Bob@Example.com",
		"first_name":   "Bob",
		"last_name":    "Norman",
		"orders_count": json.Number("6"),
		"state":        "enabled",
		"tags":         "vip, loyal",
		"total_spent":  "120.50",
		"phone":        nil,
		"created_at":   "2023-01-01T15:30:00Z",
		"default_address": map[string]any{
			"city":    "Ottawa",
			"country": "Canada",
		},
	}
}

func mustParse(t *testing.T, q string) DNF {
	t.Helper()
	dnf, err := Parse(q)
	require.NoError(t, err, q)
	return dnf
}

func TestMatches(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"email:bob@example.com", true},
		{"email:bob@*", true},
		{"email:!=bob@example.com", false},
		{"email:*", true},
		{"orders_count:>5 AND tag:VIP", true},
		{"orders_count:>6", false},
		{"orders_count:>=6", true},
		{"orders_count:abc", false},
		{"tag:spam", false},
		{"-tag:spam", true},
		{"-tag:vip", false},
		{"tag:loy*", true},
		{"tag:!=spam", true},
		{"tag:>a", false},
		{"total_spent:>100", true},
		{"total_spent:120.5", true},
		{"total_spent:<=20", false},
		{"created_at:2023-01-01", true},
		{"created_at:!=2023-01-01", false},
		{"created_at:>2022-12-31", true},
		{"created_at:2023-01-01T15:30:00Z", true},
		{"created_at:<2023-01-01T15:30:00Z", false},
		{"created_at:>=2023-01-01T15:30:00Z", true},
		{"created_at:yesterday", false},
		{"phone:*", false},
		{"-phone:*", true},
		{`phone:""`, true},
		{"phone:null", true},
		{"phone:555", false},
		{"phone:!=555", false},
		{"default_address.city:ottawa", true},
		{"default_address.zip:*", false},
		{"Norman", true},
		{"orm", true},
		{"norm*", true},
		{"orm*", false},
		{"Bob Norman", true},
		{"Bob Smith", false},
		{`"Bob Norman"`, true},
		{"tag:vip OR tag:spam", true},
		{"tag:spam OR state:disabled", false},
		{"state:enabled AND NOT tag:vip", false},
		{"first_name:>alice", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(bob(), mustParse(t, tt.query)))
		})
	}
}

func TestMatchesEscapedValues(t *testing.T) {
	rec := Record{"first_name": "Bob Smith", "last_name": "O'Brien"}
	tests := []struct {
		query string
		want  bool
	}{
		{`first_name:Bob\ Smith`, true},
		{`first_name:"Bob Smith"`, true},
		{`first_name:Bob\ Smyth`, false},
		{`last_name:O\'Brien`, true},
		{`last_name:O\'Br*`, true},
		{`last_name:OBrien`, false},
		{`last_name:O\'Brien OR first_name:'Nobody Here'`, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(rec, mustParse(t, tt.query)))
		})
	}
}

func TestNegationInverts(t *testing.T) {
	rec := bob()
	for _, q := range []string{
		"email:bob@example.com",
		"tag:spam",
		"phone:*",
		"orders_count:<2",
		"created_at:2023-01-01",
		"norm*",
		"nobody",
	} {
		plain := mustParse(t, q)[0][0]
		negated := plain
		negated.Negated = true
		assert.Equal(t, !EvaluateCondition(rec, plain), EvaluateCondition(rec, negated), q)
	}
}

func TestMatchesIsDisjunctionOfGroups(t *testing.T) {
	rec := bob()
	left, right := "tag:spam AND state:enabled", "orders_count:>5"
	combined := Matches(rec, mustParse(t, left+" OR "+right))
	assert.Equal(t, Matches(rec, mustParse(t, left)) || Matches(rec, mustParse(t, right)), combined)
	assert.True(t, combined)
}

func TestEmptyDNFMatchesEverything(t *testing.T) {
	assert.True(t, Matches(bob(), nil))
	assert.True(t, Matches(Record{}, DNF{}))
}

func TestFilterKeepsInputOrder(t *testing.T) {
	recs := []Record{
		{"id": "1", "tags": "vip"},
		{"id": "2", "tags": "spam"},
		{"id": "3", "tags": "VIP, new"},
	}
	got := Filter(recs, mustParse(t, "tag:vip"))
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0]["id"])
	assert.Equal(t, "3", got[1]["id"])

	assert.Len(t, Filter(recs, nil), 3)
}

func TestLookup(t *testing.T) {
	rec := Record{
		"addresses": []any{
			map[string]any{"city": "Ottawa"},
			map[string]any{"city": nil},
		},
	}

	v, ok := rec.Lookup("addresses.0.city")
	require.True(t, ok)
	assert.Equal(t, "Ottawa", v)

	_, ok = rec.Lookup("addresses.1.city")
	assert.False(t, ok)
	_, ok = rec.Lookup("addresses.5.city")
	assert.False(t, ok)
	_, ok = rec.Lookup("addresses.x")
	assert.False(t, ok)
	_, ok = rec.Lookup("missing")
	assert.False(t, ok)
}
