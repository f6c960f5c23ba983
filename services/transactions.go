package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"commerce-sim/models"
	"commerce-sim/store"
	"commerce-sim/utils"
)

// Gateways and amounts that make the simulated payment processor decline.
const (
	failingGateway        = "failing_gateway"
	failSimulationGateway = "fail_gateway_simulation"
	declinedAmount        = "9999.00"
)

type TransactionInput struct {
	Kind                  models.TransactionKind `json:"kind" validate:"required,oneof=authorization capture sale void refund"`
	Amount                string                 `json:"amount" validate:"required,positive_decimal"`
	Gateway               string                 `json:"gateway"`
	ParentID              *string                `json:"parent_id"`
	Currency              string                 `json:"currency" validate:"omitempty,len=3"`
	Test                  bool                   `json:"test"`
	Authorization         string                 `json:"authorization"`
	SourceName            string                 `json:"source_name"`
	TargetPaymentMethodID *string                `json:"target_payment_method_id"`
}

// CreateTransaction records a payment operation against an order. A declined
// payment is still recorded with status failure; the returned error then
// wraps ErrPaymentFailed alongside the stored transaction.
func (s *OrderService) CreateTransaction(ctx context.Context, orderID string, in TransactionInput) (*models.Transaction, error) {
	if errs := utils.Validate(in); errs != nil {
		return nil, validationError("%s", utils.FormatValidation(errs))
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order", orderID)
	}

	amount := mustDecimal(in.Amount)
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = order.Currency
	}
	txID := nextTransactionID(order.AllTransactions())
	gateway := in.Gateway

	var parent *models.Transaction
	if in.ParentID != nil {
		p, ok := order.FindTransaction(*in.ParentID)
		if !ok {
			verb := "processed"
			if in.Kind == models.KindCapture || in.Kind == models.KindVoid {
				verb = string(in.Kind)
			}
			return nil, fmt.Errorf("%w: parent transaction with ID '%s' not found or not applicable for %s", ErrPayment, *in.ParentID, verb)
		}
		parent = p
		if gateway == "" {
			gateway = parent.Gateway
		}
	}

	if gateway == "" {
		switch in.Kind {
		case models.KindCapture, models.KindVoid:
			if parent == nil {
				return nil, validationError("transaction of kind '%s' requires a 'parent_id' or a 'gateway'", in.Kind)
			}
			return nil, validationError("transaction gateway could not be determined for kind '%s'", in.Kind)
		case models.KindSale, models.KindAuthorization:
			return nil, validationError("transaction 'gateway' is required for kind '%s'", in.Kind)
		case models.KindRefund:
			gateway = "manual"
		}
	}

	switch in.Kind {
	case models.KindCapture:
		if parent != nil {
			if err := checkCapture(order, parent, amount, in.Amount); err != nil {
				return nil, err
			}
		}
	case models.KindVoid:
		if parent != nil {
			if err := checkVoid(order, parent); err != nil {
				return nil, err
			}
		}
	case models.KindRefund:
		if err := checkRefund(order, parent, amount, in.Amount); err != nil {
			return nil, err
		}
		if in.TargetPaymentMethodID != nil && *in.TargetPaymentMethodID != "" {
			pm, err := s.targetPaymentMethod(ctx, order, *in.TargetPaymentMethodID)
			if err != nil {
				return nil, err
			}
			gateway = gatewayFor(pm)
		}
	}

	now := s.now()
	stamp := s.timestamp()
	tx := models.Transaction{
		ID:                    txID,
		OrderID:               order.ID,
		Kind:                  in.Kind,
		Amount:                in.Amount,
		Currency:              currency,
		Gateway:               gateway,
		Test:                  in.Test,
		Authorization:         in.Authorization,
		SourceName:            in.SourceName,
		CreatedAt:             stamp,
		ProcessedAt:           models.StringPtr(stamp),
		TargetPaymentMethodID: in.TargetPaymentMethodID,
	}
	if tx.SourceName == "" {
		tx.SourceName = "api"
	}
	if parent != nil {
		tx.ParentID = models.StringPtr(parent.ID)
	}

	var declined error
	switch {
	case gateway == failingGateway:
		tx.Status = models.TransactionFailure
		tx.Message = fmt.Sprintf("Payment processing failed with gateway '%s': Simulated failure.", gateway)
	case gateway == failSimulationGateway:
		tx.Status = models.TransactionFailure
		tx.Message = "Gateway error: Simulated payment failure."
	case in.Amount == declinedAmount:
		tx.Status = models.TransactionFailure
		tx.Message = "Transaction declined: Amount triggered simulated failure."
	default:
		tx.Status = models.TransactionSuccess
		tx.Message = "Transaction approved."
		if tx.Kind == models.KindAuthorization && tx.Authorization == "" {
			tx.Authorization = authorizationCode(txID, now)
		}
	}
	if tx.Status == models.TransactionFailure {
		declined = fmt.Errorf("%w: %s", ErrPaymentFailed, tx.Message)
	}
	tx.OriginalPaymentMethodID = originalPaymentMethod(order, parent, &tx)

	order.Transactions = append(order.Transactions, tx)
	order.UpdatedAt = stamp
	s.derive(order)
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	if tx.Status == models.TransactionSuccess && tx.Kind == models.KindRefund && gateway == "manual" {
		s.creditGiftCard(ctx, order, amount)
	}
	s.publish(ctx, models.EventTransactionCreated, order, 5)

	if declined != nil {
		return &tx, declined
	}
	return &tx, nil
}

// PaymentUpdate replaces the transaction with the same id on a pending order,
// or is appended when no such transaction exists. Empty optional fields leave
// an existing transaction's value untouched.
type PaymentUpdate struct {
	ID                      string                   `json:"id" validate:"required"`
	Kind                    models.TransactionKind   `json:"kind" validate:"required,oneof=authorization capture sale void refund"`
	Status                  models.TransactionStatus `json:"status" validate:"required,oneof=success pending failure error"`
	Amount                  string                   `json:"amount" validate:"required,numeric"`
	Gateway                 string                   `json:"gateway"`
	Currency                string                   `json:"currency" validate:"omitempty,len=3"`
	ParentID                *string                  `json:"parent_id"`
	Message                 string                   `json:"message"`
	Authorization           string                   `json:"authorization"`
	Test                    *bool                    `json:"test"`
	SourceName              string                   `json:"source_name"`
	OriginalPaymentMethodID *string                  `json:"original_payment_method_id"`
}

type ModifyPaymentInput struct {
	Transactions []PaymentUpdate `json:"transactions" validate:"required,min=1,dive"`
}

// ModifyPendingOrderPayment rewrites the payment history of an order that is
// still open and unfulfilled, then re-derives its financial status.
func (s *OrderService) ModifyPendingOrderPayment(ctx context.Context, orderID string, in ModifyPaymentInput) (*models.Order, error) {
	if errs := utils.Validate(in); errs != nil {
		return nil, validationError("invalid transactions: %s", utils.FormatValidation(errs))
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order", orderID)
	}
	switch {
	case order.IsCancelled():
		return nil, fmt.Errorf("%w: order '%s' cannot be modified as it has been cancelled", ErrOrderState, orderID)
	case order.IsClosed():
		return nil, fmt.Errorf("%w: order '%s' cannot be modified as it has been closed", ErrOrderState, orderID)
	case order.FulfillmentStatus != nil && *order.FulfillmentStatus == models.FulfillmentFulfilled:
		return nil, fmt.Errorf("%w: order '%s' cannot be modified as it has already been fulfilled", ErrOrderState, orderID)
	}

	now := s.timestamp()
	for _, u := range in.Transactions {
		if i := indexOfTransaction(order.Transactions, u.ID); i >= 0 {
			applyPaymentUpdate(&order.Transactions[i], u)
			continue
		}
		tx := models.Transaction{
			ID:         u.ID,
			OrderID:    order.ID,
			Currency:   order.Currency,
			Gateway:    "manual",
			SourceName: "api",
			CreatedAt:  now,
		}
		applyPaymentUpdate(&tx, u)
		order.Transactions = append(order.Transactions, tx)
	}

	s.derive(order)
	order.UpdatedAt = now
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventPaymentModified, order, 5)
	return order, nil
}

func indexOfTransaction(txs []models.Transaction, id string) int {
	for i := range txs {
		if txs[i].ID == id {
			return i
		}
	}
	return -1
}

func applyPaymentUpdate(tx *models.Transaction, u PaymentUpdate) {
	tx.Kind = u.Kind
	tx.Status = u.Status
	tx.Amount = strings.TrimSpace(u.Amount)
	if u.Gateway != "" {
		tx.Gateway = u.Gateway
	}
	if u.Currency != "" {
		tx.Currency = strings.ToUpper(u.Currency)
	}
	if u.ParentID != nil {
		tx.ParentID = u.ParentID
	}
	if u.Message != "" {
		tx.Message = u.Message
	}
	if u.Authorization != "" {
		tx.Authorization = u.Authorization
	}
	if u.Test != nil {
		tx.Test = *u.Test
	}
	if u.SourceName != "" {
		tx.SourceName = u.SourceName
	}
	if u.OriginalPaymentMethodID != nil {
		tx.OriginalPaymentMethodID = u.OriginalPaymentMethodID
	}
}

// ListTransactions returns the order's transactions followed by those nested
// in its refunds.
func (s *OrderService) ListTransactions(ctx context.Context, orderID string) ([]models.Transaction, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order.AllTransactions(), nil
}

func checkCapture(order *models.Order, parent *models.Transaction, amount decimal.Decimal, raw string) error {
	if parent.Kind != models.KindAuthorization {
		return fmt.Errorf("%w: parent transaction '%s' is not an authorization or is not in a capturable state", ErrPayment, parent.ID)
	}
	if parent.Status != models.TransactionSuccess {
		return fmt.Errorf("%w: parent authorization transaction '%s' was not successful and cannot be captured", ErrPayment, parent.ID)
	}
	authorized := mustDecimal(parent.Amount)
	captured := sumChildren(order.Transactions, parent.ID, models.KindCapture)
	if hasChild(order.Transactions, parent.ID, models.KindVoid) || captured.GreaterThanOrEqual(authorized) {
		return fmt.Errorf("%w: authorization transaction '%s' has already been fully captured or voided", ErrPayment, parent.ID)
	}
	if captured.Add(amount).GreaterThan(authorized) {
		return fmt.Errorf("%w: capture amount '%s' exceeds authorized amount '%s' for transaction '%s'", ErrPayment, raw, parent.Amount, parent.ID)
	}
	return nil
}

func checkVoid(order *models.Order, parent *models.Transaction) error {
	if parent.Kind != models.KindAuthorization {
		return fmt.Errorf("%w: parent transaction '%s' is not an authorization or is not in a voidable state", ErrPayment, parent.ID)
	}
	if parent.Status != models.TransactionSuccess {
		return fmt.Errorf("%w: parent authorization transaction '%s' was not successful and cannot be voided", ErrPayment, parent.ID)
	}
	if sumChildren(order.Transactions, parent.ID, models.KindCapture).IsPositive() {
		return fmt.Errorf("%w: cannot void an authorization transaction '%s' that has already been captured", ErrPayment, parent.ID)
	}
	return nil
}

// checkRefund bounds a refund by what is left on its parent, or without a
// parent by what the order has been paid net of refunds.
func checkRefund(order *models.Order, parent *models.Transaction, amount decimal.Decimal, raw string) error {
	if parent != nil {
		if parent.Kind != models.KindSale && parent.Kind != models.KindCapture {
			return fmt.Errorf("%w: parent transaction '%s' for refund must be a 'sale' or 'capture'", ErrPayment, parent.ID)
		}
		if parent.Status != models.TransactionSuccess {
			return fmt.Errorf("%w: parent transaction '%s' for refund was not successful", ErrPayment, parent.ID)
		}
		refunded := sumChildren(order.AllTransactions(), parent.ID, models.KindRefund)
		if refunded.Add(amount).GreaterThan(mustDecimal(parent.Amount)) {
			return fmt.Errorf("%w: refund amount '%s' exceeds available amount for transaction '%s'", ErrPayment, raw, parent.ID)
		}
		return nil
	}

	paid, refunded := decimal.Zero, decimal.Zero
	for _, t := range order.AllTransactions() {
		if t.Status != models.TransactionSuccess {
			continue
		}
		a, err := decimal.NewFromString(strings.TrimSpace(t.Amount))
		if err != nil {
			continue
		}
		switch t.Kind {
		case models.KindSale, models.KindCapture:
			paid = paid.Add(a)
		case models.KindRefund:
			refunded = refunded.Add(a)
		}
	}
	if amount.GreaterThan(paid.Sub(refunded)) {
		return fmt.Errorf("%w: cannot process refund, no refundable amount on order '%s'", ErrPayment, order.ID)
	}
	return nil
}

func (s *OrderService) targetPaymentMethod(ctx context.Context, order *models.Order, pmID string) (*models.PaymentMethod, error) {
	if order.Customer == nil || order.Customer.ID == "" {
		return nil, fmt.Errorf("%w: cross-payment method refunds require a customer associated with the order", ErrPayment)
	}
	customer, err := s.store.GetCustomer(ctx, order.Customer.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if customer != nil {
		if pm, ok := customer.OwnsPaymentMethod(pmID); ok {
			return pm, nil
		}
	}
	return nil, fmt.Errorf("%w: customer does not have access to payment method '%s'", ErrPayment, pmID)
}

// gatewayFor prefers the method's own gateway and otherwise reads it from the
// id prefix.
func gatewayFor(pm *models.PaymentMethod) string {
	if pm.Gateway != "" {
		return pm.Gateway
	}
	switch {
	case strings.HasPrefix(pm.ID, "pm_paypal_"):
		return "paypal"
	case strings.HasPrefix(pm.ID, "pm_stripe_"):
		return "stripe"
	case strings.HasPrefix(pm.ID, "pm_shopify_"):
		return "shopify_payments"
	}
	return "manual"
}

// originalPaymentMethod carries the payment method that first took the money:
// from the parent, else (for cross-method refunds) from the latest successful
// sale or capture, else a synthesized id.
func originalPaymentMethod(order *models.Order, parent *models.Transaction, tx *models.Transaction) *string {
	if parent != nil && parent.OriginalPaymentMethodID != nil && *parent.OriginalPaymentMethodID != "" {
		return models.StringPtr(*parent.OriginalPaymentMethodID)
	}
	if tx.TargetPaymentMethodID != nil && *tx.TargetPaymentMethodID != "" {
		for i := len(order.Transactions) - 1; i >= 0; i-- {
			t := order.Transactions[i]
			if t.Status == models.TransactionSuccess &&
				(t.Kind == models.KindSale || t.Kind == models.KindCapture) &&
				t.OriginalPaymentMethodID != nil && *t.OriginalPaymentMethodID != "" {
				return models.StringPtr(*t.OriginalPaymentMethodID)
			}
		}
	}
	return models.StringPtr(fmt.Sprintf("pm_%s_%s", tx.Gateway, tx.ID))
}

func sumChildren(txs []models.Transaction, parentID string, kind models.TransactionKind) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.ParentID == nil || *t.ParentID != parentID || t.Kind != kind || t.Status != models.TransactionSuccess {
			continue
		}
		if a, err := decimal.NewFromString(strings.TrimSpace(t.Amount)); err == nil {
			total = total.Add(a)
		}
	}
	return total
}

func hasChild(txs []models.Transaction, parentID string, kind models.TransactionKind) bool {
	for _, t := range txs {
		if t.ParentID != nil && *t.ParentID == parentID && t.Kind == kind && t.Status == models.TransactionSuccess {
			return true
		}
	}
	return false
}
