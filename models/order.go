package models

import "time"

type FinancialStatus string

const (
	FinancialPending           FinancialStatus = "pending"
	FinancialAuthorized        FinancialStatus = "authorized"
	FinancialPartiallyPaid     FinancialStatus = "partially_paid"
	FinancialPaid              FinancialStatus = "paid"
	FinancialPartiallyRefunded FinancialStatus = "partially_refunded"
	FinancialRefunded          FinancialStatus = "refunded"
	FinancialVoided            FinancialStatus = "voided"
)

// FulfillmentStatus is used both for orders (fulfilled, partial, unfulfilled)
// and for line items (fulfilled, restocked).
type FulfillmentStatus string

const (
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentPartial     FulfillmentStatus = "partial"
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentRestocked   FulfillmentStatus = "restocked"
)

type TransactionKind string

const (
	KindAuthorization TransactionKind = "authorization"
	KindCapture       TransactionKind = "capture"
	KindSale          TransactionKind = "sale"
	KindVoid          TransactionKind = "void"
	KindRefund        TransactionKind = "refund"
)

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionPending TransactionStatus = "pending"
	TransactionFailure TransactionStatus = "failure"
	TransactionError   TransactionStatus = "error"
)

// Transaction is append-only: corrections are new transactions that point at
// the original through ParentID.
type Transaction struct {
	ID                      string            `json:"id"`
	OrderID                 string            `json:"order_id,omitempty"`
	Kind                    TransactionKind   `json:"kind"`
	Status                  TransactionStatus `json:"status"`
	Amount                  string            `json:"amount"`
	Currency                string            `json:"currency,omitempty"`
	ParentID                *string           `json:"parent_id"`
	Gateway                 string            `json:"gateway,omitempty"`
	Message                 string            `json:"message,omitempty"`
	Authorization           string            `json:"authorization,omitempty"`
	Test                    bool              `json:"test"`
	SourceName              string            `json:"source_name,omitempty"`
	CreatedAt               string            `json:"created_at"`
	ProcessedAt             *string           `json:"processed_at,omitempty"`
	OriginalPaymentMethodID *string           `json:"original_payment_method_id,omitempty"`
	TargetPaymentMethodID   *string           `json:"target_payment_method_id,omitempty"`
}

type RefundLineItem struct {
	LineItemID  string `json:"line_item_id"`
	Quantity    int    `json:"quantity"`
	RestockType string `json:"restock_type"`
}

type Refund struct {
	ID              string           `json:"id"`
	OrderID         string           `json:"order_id"`
	CreatedAt       string           `json:"created_at"`
	Note            string           `json:"note,omitempty"`
	Currency        string           `json:"currency"`
	Transactions    []Transaction    `json:"transactions"`
	RefundLineItems []RefundLineItem `json:"refund_line_items"`
}

type LineItem struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	SKU               string             `json:"sku,omitempty"`
	Quantity          int                `json:"quantity"`
	Price             string             `json:"price"`
	RequiresShipping  bool               `json:"requires_shipping"`
	FulfillmentStatus *FulfillmentStatus `json:"fulfillment_status"`
}

// CustomerRef is the customer snapshot embedded in an order.
type CustomerRef struct {
	ID        string  `json:"id"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type Order struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	OrderNumber       int                `json:"order_number"`
	Email             string             `json:"email,omitempty"`
	Customer          *CustomerRef       `json:"customer"`
	Currency          string             `json:"currency"`
	TotalPrice        string             `json:"total_price"`
	SubtotalPrice     string             `json:"subtotal_price"`
	FinancialStatus   FinancialStatus    `json:"financial_status"`
	FulfillmentStatus *FulfillmentStatus `json:"fulfillment_status"`
	CreatedAt         string             `json:"created_at"`
	UpdatedAt         string             `json:"updated_at"`
	CancelledAt       *string            `json:"cancelled_at"`
	CancelReason      *string            `json:"cancel_reason"`
	ClosedAt          *string            `json:"closed_at"`
	Tags              string             `json:"tags"`
	Note              *string            `json:"note"`
	LineItems         []LineItem         `json:"line_items"`
	Transactions      []Transaction      `json:"transactions"`
	Refunds           []Refund           `json:"refunds"`
}

func (o *Order) IsCancelled() bool {
	return o.CancelledAt != nil && *o.CancelledAt != ""
}

func (o *Order) IsClosed() bool {
	return o.ClosedAt != nil && *o.ClosedAt != ""
}

// AllTransactions returns the order-level transactions followed by the
// transactions nested in each refund, in input order.
func (o *Order) AllTransactions() []Transaction {
	all := make([]Transaction, 0, len(o.Transactions))
	all = append(all, o.Transactions...)
	for _, r := range o.Refunds {
		all = append(all, r.Transactions...)
	}
	return all
}

// FindTransaction looks up an order-level transaction by id.
func (o *Order) FindTransaction(id string) (*Transaction, bool) {
	for i := range o.Transactions {
		if o.Transactions[i].ID == id {
			return &o.Transactions[i], true
		}
	}
	return nil, false
}

type OrderEvent struct {
	ID                string             `json:"id"`
	OrderID           string             `json:"order_id"`
	Type              string             `json:"type"` // created, transaction_created, cancelled, closed, fulfilled, payment_check, status_recompute
	FinancialStatus   FinancialStatus    `json:"financial_status,omitempty"`
	FulfillmentStatus *FulfillmentStatus `json:"fulfillment_status,omitempty"`
	Total             string             `json:"total,omitempty"`
	Occurred          time.Time          `json:"occurred"`
}

const (
	EventCreated            = "created"
	EventTransactionCreated = "transaction_created"
	EventPaymentModified    = "payment_modified"
	EventCancelled          = "cancelled"
	EventClosed             = "closed"
	EventReopened           = "reopened"
	EventFulfilled          = "fulfilled"
	EventPaymentCheck       = "payment_check"
	EventStatusRecompute    = "status_recompute"
)

func StringPtr(s string) *string {
	return &s
}

func FulfillmentPtr(s FulfillmentStatus) *FulfillmentStatus {
	return &s
}
