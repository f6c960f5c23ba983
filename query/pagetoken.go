package query

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type pageToken struct {
	Offset int `json:"offset"`
}

// EncodePageToken wraps an offset in an opaque URL-safe token.
func EncodePageToken(offset int) string {
	raw, _ := json.Marshal(pageToken{Offset: offset})
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodePageToken is the inverse of EncodePageToken. Missing padding is
// tolerated. Negative offsets are returned as decoded; rejecting them is the
// caller's call.
func DecodePageToken(token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrInvalidPageToken
	}
	if rem := len(token) % 4; rem != 0 {
		token += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	num, ok := body["offset"].(json.Number)
	if !ok {
		return 0, ErrInvalidPageToken
	}
	offset, err := num.Int64()
	if err != nil {
		// fractional offsets truncate
		f, ferr := num.Float64()
		if ferr != nil || f <= math.MinInt || f >= math.MaxInt {
			return 0, fmt.Errorf("%w: offset %s out of range", ErrInvalidPageToken, num)
		}
		return int(f), nil
	}
	if offset < math.MinInt || offset > math.MaxInt {
		return 0, fmt.Errorf("%w: offset %s out of range", ErrInvalidPageToken, num)
	}
	return int(offset), nil
}
