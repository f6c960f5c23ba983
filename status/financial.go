// Package status derives an order's financial and fulfillment status from its
// transaction history and line items.
//
// Both functions read a snapshot and return a value; they never mutate the
// order. Callers that mutate orders concurrently must serialize the
// load, derive, save cycle per order id themselves.
package status

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"commerce-sim/models"
	"commerce-sim/timeutil"
)

type ledger struct {
	totalPaid     decimal.Decimal
	totalRefunded decimal.Decimal
	hasAuth       bool
	trackedAuthID string
	closedAuths   map[string]bool
}

// authPending reports whether the most recent successful authorization has
// been neither captured nor voided.
func (l *ledger) authPending() bool {
	if !l.hasAuth || l.trackedAuthID == "" {
		return false
	}
	return !l.closedAuths[l.trackedAuthID]
}

// Financial derives the order's financial status.
func Financial(order *models.Order) models.FinancialStatus {
	cancelled := order.IsCancelled()
	all := order.AllTransactions()
	if cancelled && len(all) == 0 {
		return models.FinancialVoided
	}

	l := accumulate(chronological(all))

	total, err := decimal.NewFromString(order.TotalPrice)
	if err != nil {
		total = decimal.Zero
	}

	pending := l.authPending()
	paid := l.totalPaid
	refunded := l.totalRefunded

	result := order.FinancialStatus
	if result == "" {
		result = models.FinancialPending
	}

	switch {
	case cancelled && paid.IsZero() && !pending:
		result = models.FinancialVoided
	case refunded.GreaterThanOrEqual(paid) && paid.IsPositive():
		result = models.FinancialRefunded
	case refunded.IsPositive():
		result = models.FinancialPartiallyRefunded
	case paid.GreaterThanOrEqual(total) && total.IsPositive():
		result = models.FinancialPaid
	case paid.IsPositive():
		result = models.FinancialPartiallyPaid
	case pending:
		result = models.FinancialAuthorized
	case paid.IsZero() && !cancelled:
		result = models.FinancialPending
	}

	// A cancelled order that never took money and holds no live authorization
	// has nothing left to settle.
	if cancelled && paid.IsZero() && !pending {
		switch result {
		case models.FinancialRefunded, models.FinancialPartiallyRefunded, models.FinancialVoided:
		default:
			result = models.FinancialVoided
		}
	}
	return result
}

// chronological orders transactions by created_at, keeping input order for
// ties. Unparsable timestamps sort as the zero time.
func chronological(txs []models.Transaction) []models.Transaction {
	type keyed struct {
		at time.Time
		tx models.Transaction
	}
	items := make([]keyed, len(txs))
	for i, tx := range txs {
		at, _ := timeutil.Parse(tx.CreatedAt)
		items[i] = keyed{at: at, tx: tx}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.Before(items[j].at)
	})
	out := make([]models.Transaction, len(items))
	for i := range items {
		out[i] = items[i].tx
	}
	return out
}

func accumulate(txs []models.Transaction) *ledger {
	l := &ledger{closedAuths: make(map[string]bool)}
	for _, tx := range txs {
		if tx.Status != models.TransactionSuccess {
			continue
		}
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			log.Warn().Err(err).
				Str("transaction_id", tx.ID).
				Str("amount", tx.Amount).
				Msg("skipping transaction with malformed amount")
			continue
		}
		parentID := ""
		if tx.ParentID != nil {
			parentID = *tx.ParentID
		}

		switch tx.Kind {
		case models.KindSale:
			l.totalPaid = l.totalPaid.Add(amount)
		case models.KindCapture:
			l.totalPaid = l.totalPaid.Add(amount)
			if parentID != "" {
				l.closedAuths[parentID] = true
			}
		case models.KindRefund:
			l.totalRefunded = l.totalRefunded.Add(amount)
		case models.KindAuthorization:
			l.hasAuth = true
			if tx.ID != "" {
				l.trackedAuthID = tx.ID
				if _, seen := l.closedAuths[tx.ID]; !seen {
					l.closedAuths[tx.ID] = false
				}
			}
		case models.KindVoid:
			if parentID != "" {
				l.closedAuths[parentID] = true
				if parentID == l.trackedAuthID {
					l.hasAuth = false
				}
			}
		}
	}
	return l
}
