package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("admin", "secret", time.Hour)
	require.NoError(t, err)

	sub, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := GenerateToken("admin", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	good, err := GenerateToken("admin", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(good, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("garbage", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenUserIDClaim(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": float64(42)}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	sub, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

type priceInput struct {
	Amount   string `json:"amount" validate:"required,positive_decimal"`
	Discount string `json:"discount" validate:"omitempty,decimal"`
	Reason   string `json:"reason" validate:"omitempty,oneof=customer inventory fraud other"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input priceInput
		want  map[string]string
	}{
		{"valid", priceInput{Amount: "10.50", Discount: "0", Reason: "fraud"}, nil},
		{"missing amount", priceInput{}, map[string]string{"amount": "is required"}},
		{"zero amount", priceInput{Amount: "0.00"}, map[string]string{"amount": "must be a positive decimal"}},
		{"not a number", priceInput{Amount: "ten"}, map[string]string{"amount": "must be a positive decimal"}},
		{"negative discount", priceInput{Amount: "1", Discount: "-1"}, map[string]string{"discount": "must be a non-negative decimal"}},
		{"bad reason", priceInput{Amount: "1", Reason: "bored"}, map[string]string{"reason": "must be one of: customer, inventory, fraud, other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.input))
		})
	}
}

func TestFormatValidation(t *testing.T) {
	msg := FormatValidation(map[string]string{"b": "is invalid", "a": "is required"})
	assert.Equal(t, "a is required; b is invalid", msg)
}
