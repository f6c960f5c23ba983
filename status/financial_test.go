package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"commerce-sim/models"
)

func tx(id string, kind models.TransactionKind, amount, createdAt string) models.Transaction {
	return models.Transaction{
		ID:        id,
		Kind:      kind,
		Status:    models.TransactionSuccess,
		Amount:    amount,
		Currency:  "USD",
		Gateway:   "bogus",
		CreatedAt: createdAt,
	}
}

func child(t models.Transaction, parent string) models.Transaction {
	t.ParentID = models.StringPtr(parent)
	return t
}

func TestFinancial(t *testing.T) {
	tests := []struct {
		name  string
		order models.Order
		want  models.FinancialStatus
	}{
		{
			name: "sale covering total is paid",
			order: models.Order{
				TotalPrice:   "50.00",
				Transactions: []models.Transaction{tx("1", models.KindSale, "50.00", "2024-01-01T10:00:00Z")},
			},
			want: models.FinancialPaid,
		},
		{
			name: "uncaptured authorization is authorized",
			order: models.Order{
				TotalPrice:   "20.00",
				Transactions: []models.Transaction{tx("1", models.KindAuthorization, "20.00", "2024-01-01T10:00:00Z")},
			},
			want: models.FinancialAuthorized,
		},
		{
			name: "captured then fully refunded",
			order: models.Order{
				TotalPrice: "20.00",
				Transactions: []models.Transaction{
					tx("1", models.KindAuthorization, "20.00", "2024-01-01T10:00:00Z"),
					child(tx("2", models.KindCapture, "20.00", "2024-01-01T11:00:00Z"), "1"),
					tx("3", models.KindRefund, "20.00", "2024-01-02T10:00:00Z"),
				},
			},
			want: models.FinancialRefunded,
		},
		{
			name: "partial capture is partially paid",
			order: models.Order{
				TotalPrice: "100.00",
				Transactions: []models.Transaction{
					tx("1", models.KindAuthorization, "100.00", "2024-01-01T10:00:00Z"),
					child(tx("2", models.KindCapture, "40.00", "2024-01-01T11:00:00Z"), "1"),
				},
			},
			want: models.FinancialPartiallyPaid,
		},
		{
			name: "partial refund",
			order: models.Order{
				TotalPrice: "100.00",
				Transactions: []models.Transaction{
					tx("1", models.KindSale, "100.00", "2024-01-01T10:00:00Z"),
					tx("2", models.KindRefund, "30.00", "2024-01-02T10:00:00Z"),
				},
			},
			want: models.FinancialPartiallyRefunded,
		},
		{
			name: "refund transactions nested in refunds count",
			order: models.Order{
				TotalPrice:   "100.00",
				Transactions: []models.Transaction{tx("1", models.KindSale, "100.00", "2024-01-01T10:00:00Z")},
				Refunds: []models.Refund{{
					ID:           "1",
					Transactions: []models.Transaction{tx("2", models.KindRefund, "100.00", "2024-01-03T10:00:00Z")},
				}},
			},
			want: models.FinancialRefunded,
		},
		{
			name: "no transactions is pending",
			order: models.Order{TotalPrice: "10.00"},
			want:  models.FinancialPending,
		},
		{
			name: "cancelled without transactions is voided",
			order: models.Order{
				TotalPrice:      "10.00",
				CancelledAt:     models.StringPtr("2024-01-01T10:00:00Z"),
				FinancialStatus: models.FinancialAuthorized,
			},
			want: models.FinancialVoided,
		},
		{
			name: "voided authorization is pending again",
			order: models.Order{
				TotalPrice: "20.00",
				Transactions: []models.Transaction{
					tx("1", models.KindAuthorization, "20.00", "2024-01-01T10:00:00Z"),
					child(tx("2", models.KindVoid, "20.00", "2024-01-01T11:00:00Z"), "1"),
				},
			},
			want: models.FinancialPending,
		},
		{
			name: "cancelled after void is voided",
			order: models.Order{
				TotalPrice:  "20.00",
				CancelledAt: models.StringPtr("2024-01-02T10:00:00Z"),
				Transactions: []models.Transaction{
					tx("1", models.KindAuthorization, "20.00", "2024-01-01T10:00:00Z"),
					child(tx("2", models.KindVoid, "20.00", "2024-01-01T11:00:00Z"), "1"),
				},
			},
			want: models.FinancialVoided,
		},
		{
			name: "cancelled with live authorization stays authorized",
			order: models.Order{
				TotalPrice:   "20.00",
				CancelledAt:  models.StringPtr("2024-01-02T10:00:00Z"),
				Transactions: []models.Transaction{tx("1", models.KindAuthorization, "20.00", "2024-01-01T10:00:00Z")},
			},
			want: models.FinancialAuthorized,
		},
		{
			name: "failed sale does not count",
			order: models.Order{
				TotalPrice: "20.00",
				Transactions: []models.Transaction{func() models.Transaction {
					t := tx("1", models.KindSale, "20.00", "2024-01-01T10:00:00Z")
					t.Status = models.TransactionFailure
					return t
				}()},
			},
			want: models.FinancialPending,
		},
		{
			name: "malformed amount is skipped",
			order: models.Order{
				TotalPrice: "50.00",
				Transactions: []models.Transaction{
					tx("1", models.KindSale, "not-a-number", "2024-01-01T10:00:00Z"),
					tx("2", models.KindSale, "50.00", "2024-01-01T11:00:00Z"),
				},
			},
			want: models.FinancialPaid,
		},
		{
			name: "garbled total defaults to zero",
			order: models.Order{
				TotalPrice:   "abc",
				Transactions: []models.Transaction{tx("1", models.KindSale, "5.00", "2024-01-01T10:00:00Z")},
			},
			want: models.FinancialPartiallyPaid,
		},
		{
			name: "void recorded before authorization in input order is applied chronologically",
			order: models.Order{
				TotalPrice: "20.00",
				Transactions: []models.Transaction{
					child(tx("2", models.KindVoid, "20.00", "2024-01-01T11:00:00Z"), "1"),
					tx("1", models.KindAuthorization, "20.00", "2024-01-01T10:00:00Z"),
				},
			},
			want: models.FinancialPending,
		},
		{
			name: "newer authorization replaces tracked one",
			order: models.Order{
				TotalPrice: "20.00",
				Transactions: []models.Transaction{
					tx("1", models.KindAuthorization, "20.00", "2024-01-01T10:00:00Z"),
					child(tx("2", models.KindVoid, "20.00", "2024-01-01T11:00:00Z"), "1"),
					tx("3", models.KindAuthorization, "20.00", "2024-01-01T12:00:00Z"),
				},
			},
			want: models.FinancialAuthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Financial(&tt.order))
		})
	}
}

func TestFinancialIsIdempotent(t *testing.T) {
	order := models.Order{
		TotalPrice: "80.00",
		Transactions: []models.Transaction{
			tx("1", models.KindAuthorization, "80.00", "2024-01-01T10:00:00Z"),
			child(tx("2", models.KindCapture, "30.00", "2024-01-01T11:00:00Z"), "1"),
		},
	}
	first := Financial(&order)
	order.FinancialStatus = first
	second := Financial(&order)
	assert.Equal(t, first, second)
}

func TestFinancialDoesNotMutateTransactions(t *testing.T) {
	order := models.Order{
		TotalPrice: "20.00",
		Transactions: []models.Transaction{
			tx("2", models.KindSale, "10.00", "2024-01-02T10:00:00Z"),
			tx("1", models.KindSale, "10.00", "2024-01-01T10:00:00Z"),
		},
	}
	Financial(&order)
	assert.Equal(t, "2", order.Transactions[0].ID)
	assert.Equal(t, "1", order.Transactions[1].ID)
}

// A successful refund can only move an order toward refunded.
func TestRefundNeverMovesBackToPaid(t *testing.T) {
	rank := map[models.FinancialStatus]int{
		models.FinancialPending:           0,
		models.FinancialAuthorized:        1,
		models.FinancialPartiallyPaid:     2,
		models.FinancialPaid:              3,
		models.FinancialPartiallyRefunded: 4,
		models.FinancialRefunded:          5,
	}

	order := models.Order{
		TotalPrice:   "100.00",
		Transactions: []models.Transaction{tx("1", models.KindSale, "100.00", "2024-01-01T10:00:00Z")},
	}
	before := Financial(&order)

	for i, amount := range []string{"10.00", "40.00", "50.00"} {
		order.Transactions = append(order.Transactions,
			tx(string(rune('2'+i)), models.KindRefund, amount, "2024-01-02T10:00:00Z"))
		after := Financial(&order)
		assert.GreaterOrEqual(t, rank[after], rank[before], "refund %s moved %s -> %s", amount, before, after)
		before = after
	}
	assert.Equal(t, models.FinancialRefunded, before)
}

func TestApplyReportsChange(t *testing.T) {
	order := models.Order{
		TotalPrice:      "10.00",
		FinancialStatus: models.FinancialPending,
		Transactions:    []models.Transaction{tx("1", models.KindSale, "10.00", "2024-01-01T10:00:00Z")},
		LineItems:       []models.LineItem{{ID: "1", RequiresShipping: true}},
	}
	assert.True(t, Apply(&order))
	assert.Equal(t, models.FinancialPaid, order.FinancialStatus)
	if assert.NotNil(t, order.FulfillmentStatus) {
		assert.Equal(t, models.FulfillmentUnfulfilled, *order.FulfillmentStatus)
	}
	assert.False(t, Apply(&order))
}
