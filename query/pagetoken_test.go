package query

import (
	"encoding/base64"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageTokenRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 50, 250, 123456, 1<<53 + 1, math.MaxInt - 10, math.MaxInt} {
		got, err := DecodePageToken(EncodePageToken(offset))
		require.NoError(t, err)
		assert.Equal(t, offset, got)
	}
}

func TestDecodePageTokenWithoutPadding(t *testing.T) {
	tok := strings.TrimRight(EncodePageToken(50), "=")
	got, err := DecodePageToken(tok)
	require.NoError(t, err)
	assert.Equal(t, 50, got)
}

func TestDecodePageTokenNegativeOffset(t *testing.T) {
	got, err := DecodePageToken(EncodePageToken(-5))
	require.NoError(t, err)
	assert.Equal(t, -5, got)
}

func TestDecodePageTokenInvalid(t *testing.T) {
	enc := func(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }
	for _, tok := range []string{
		"",
		"!!!not-base64",
		enc("not json"),
		enc(`{"offset":"5"}`),
		enc(`{}`),
		enc(`[1,2]`),
		enc(`{"offset":1e30}`),
		enc(`{"offset":-1e30}`),
		enc(`{"offset":99999999999999999999}`),
	} {
		_, err := DecodePageToken(tok)
		assert.ErrorIs(t, err, ErrInvalidPageToken, tok)
	}
}

func TestDecodePageTokenFractionalOffset(t *testing.T) {
	got, err := DecodePageToken(base64.URLEncoding.EncodeToString([]byte(`{"offset":2.9}`)))
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
