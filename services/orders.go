package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"commerce-sim/logger"
	"commerce-sim/models"
	"commerce-sim/status"
	"commerce-sim/store"
	"commerce-sim/timeutil"
	"commerce-sim/utils"
)

const (
	firstOrderNumber = 1001
	defaultCurrency  = "USD"
)

var cancelReasons = []string{"customer", "inventory", "fraud", "other"}

type OrderService struct {
	store             store.Store
	events            EventPublisher
	paymentCheckDelay time.Duration
	locks             *keyedMutex
	createMu          sync.Mutex
	now               func() time.Time
	onFinancialChange func(from, to models.FinancialStatus)
}

type Option func(*OrderService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

// WithFinancialObserver is called after a mutation changes an order's
// financial status.
func WithFinancialObserver(fn func(from, to models.FinancialStatus)) Option {
	return func(s *OrderService) { s.onFinancialChange = fn }
}

func NewOrderService(st store.Store, events EventPublisher, paymentCheckDelay time.Duration, opts ...Option) *OrderService {
	if events == nil {
		events = NopPublisher{}
	}
	s := &OrderService{
		store:             st,
		events:            events,
		paymentCheckDelay: paymentCheckDelay,
		locks:             newKeyedMutex(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type LineItemInput struct {
	Title             string                    `json:"title" validate:"required"`
	SKU               string                    `json:"sku"`
	Quantity          int                       `json:"quantity" validate:"gte=1"`
	Price             string                    `json:"price" validate:"required,decimal"`
	RequiresShipping  *bool                     `json:"requires_shipping"`
	FulfillmentStatus *models.FulfillmentStatus `json:"fulfillment_status" validate:"omitempty,oneof=fulfilled restocked"`
}

// TransactionSeed is a transaction recorded as part of order creation, for
// orders imported with their payment history.
type TransactionSeed struct {
	Kind      models.TransactionKind   `json:"kind" validate:"required,oneof=authorization capture sale void refund"`
	Status    models.TransactionStatus `json:"status" validate:"omitempty,oneof=success pending failure error"`
	Amount    string                   `json:"amount" validate:"required,decimal"`
	Gateway   string                   `json:"gateway"`
	ParentID  *string                  `json:"parent_id"`
	CreatedAt string                   `json:"created_at"`
}

type CreateOrderInput struct {
	CustomerID      string                 `json:"customer_id"`
	Email           string                 `json:"email" validate:"omitempty,email"`
	Currency        string                 `json:"currency" validate:"omitempty,len=3"`
	LineItems       []LineItemInput        `json:"line_items" validate:"required,min=1,dive"`
	Transactions    []TransactionSeed      `json:"transactions" validate:"omitempty,dive"`
	TotalPrice      string                 `json:"total_price" validate:"omitempty,decimal"`
	FinancialStatus models.FinancialStatus `json:"financial_status" validate:"omitempty,oneof=pending authorized partially_paid paid partially_refunded refunded voided"`
	Tags            string                 `json:"tags"`
	Note            *string                `json:"note"`
}

type CancelInput struct {
	Reason   string `json:"reason"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Restock  bool   `json:"restock"`
}

type OrderFilter struct {
	CustomerID        string
	Status            string // open (default), closed, cancelled, any
	FinancialStatus   string
	FulfillmentStatus string
}

// CreateOrder builds an order from line items, prices it, records any seed
// transactions and derives both statuses.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if errs := utils.Validate(in); errs != nil {
		return nil, validationError("%s", utils.FormatValidation(errs))
	}
	now := s.timestamp()

	var customer *models.Customer
	if in.CustomerID != "" {
		unlock := s.locks.Lock(customerKey(in.CustomerID))
		defer unlock()
		c, err := s.store.GetCustomer(ctx, in.CustomerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, validationError("customer '%s' does not exist", in.CustomerID)
			}
			return nil, err
		}
		customer = c
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		Email:           in.Email,
		Currency:        strings.ToUpper(in.Currency),
		FinancialStatus: models.FinancialPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Tags:            in.Tags,
		Note:            in.Note,
		LineItems:       make([]models.LineItem, 0, len(in.LineItems)),
		Transactions:    make([]models.Transaction, 0, len(in.Transactions)),
		Refunds:         []models.Refund{},
	}
	if order.Currency == "" {
		order.Currency = defaultCurrency
	}

	subtotal := decimal.Zero
	for i, li := range in.LineItems {
		price := mustDecimal(li.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(li.Quantity))))
		requiresShipping := true
		if li.RequiresShipping != nil {
			requiresShipping = *li.RequiresShipping
		}
		order.LineItems = append(order.LineItems, models.LineItem{
			ID:                strconv.Itoa(i + 1),
			Title:             li.Title,
			SKU:               li.SKU,
			Quantity:          li.Quantity,
			Price:             price.StringFixed(2),
			RequiresShipping:  requiresShipping,
			FulfillmentStatus: li.FulfillmentStatus,
		})
	}
	order.SubtotalPrice = subtotal.StringFixed(2)
	order.TotalPrice = order.SubtotalPrice
	if in.TotalPrice != "" {
		order.TotalPrice = mustDecimal(in.TotalPrice).StringFixed(2)
	}

	for i, seed := range in.Transactions {
		id := strconv.Itoa(i + 1)
		tx := models.Transaction{
			ID:         id,
			OrderID:    order.ID,
			Kind:       seed.Kind,
			Status:     seed.Status,
			Amount:     seed.Amount,
			Currency:   order.Currency,
			ParentID:   seed.ParentID,
			Gateway:    seed.Gateway,
			SourceName: "api",
			CreatedAt:  seed.CreatedAt,
		}
		if tx.Status == "" {
			tx.Status = models.TransactionSuccess
		}
		if tx.Gateway == "" {
			tx.Gateway = "manual"
		}
		if tx.CreatedAt == "" {
			tx.CreatedAt = now
		}
		tx.ProcessedAt = models.StringPtr(now)
		if tx.Kind == models.KindAuthorization && tx.Status == models.TransactionSuccess {
			tx.Authorization = authorizationCode(id, s.now())
		}
		tx.OriginalPaymentMethodID = models.StringPtr(fmt.Sprintf("pm_%s_%s", tx.Gateway, id))
		order.Transactions = append(order.Transactions, tx)
	}

	if customer != nil {
		order.Customer = &models.CustomerRef{
			ID:        customer.ID,
			Email:     customer.Email,
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
		}
		if order.Email == "" && customer.Email != nil {
			order.Email = *customer.Email
		}
	}

	if in.FinancialStatus != "" {
		order.FinancialStatus = in.FinancialStatus
		order.FulfillmentStatus = status.Fulfillment(order)
	} else {
		status.Apply(order)
	}

	s.createMu.Lock()
	number, err := s.nextOrderNumber(ctx)
	if err == nil {
		order.OrderNumber = number
		order.Name = fmt.Sprintf("#%d", number)
		err = s.store.SaveOrder(ctx, order)
	}
	s.createMu.Unlock()
	if err != nil {
		return nil, err
	}

	if customer != nil {
		customer.OrdersCount++
		spent := decimal.Zero
		if customer.TotalSpent != nil {
			spent, _ = decimal.NewFromString(*customer.TotalSpent)
		}
		customer.TotalSpent = models.StringPtr(spent.Add(mustDecimal(order.TotalPrice)).StringFixed(2))
		customer.UpdatedAt = now
		if err := s.store.SaveCustomer(ctx, customer); err != nil {
			return nil, err
		}
	}

	priority := uint8(5)
	if mustDecimal(order.TotalPrice).GreaterThan(decimal.NewFromInt(1000)) {
		priority = 9
	}
	s.publish(ctx, models.EventCreated, order, priority)
	if s.paymentCheckDelay > 0 {
		if err := s.events.PublishDelayed(ctx, s.event(models.EventPaymentCheck, order), s.paymentCheckDelay); err != nil {
			logger.FromContext(ctx).Error().Err(err).Str("order_id", order.ID).Msg("Failed to publish delayed payment check event")
		}
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order", id)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	state := strings.ToLower(f.Status)
	switch state {
	case "":
		state = "open"
	case "open", "closed", "cancelled", "any":
	default:
		return nil, validationError("invalid status '%s', must be one of open, closed, cancelled, any", f.Status)
	}

	all, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(all))
	for _, o := range all {
		if f.CustomerID != "" && (o.Customer == nil || o.Customer.ID != f.CustomerID) {
			continue
		}
		switch state {
		case "open":
			if o.IsClosed() || o.IsCancelled() {
				continue
			}
		case "closed":
			if !o.IsClosed() {
				continue
			}
		case "cancelled":
			if !o.IsCancelled() {
				continue
			}
		}
		if f.FinancialStatus != "" && f.FinancialStatus != "any" && string(o.FinancialStatus) != f.FinancialStatus {
			continue
		}
		if f.FulfillmentStatus != "" && f.FulfillmentStatus != "any" && !fulfillmentIs(o.FulfillmentStatus, f.FulfillmentStatus) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func fulfillmentIs(have *models.FulfillmentStatus, want string) bool {
	if have == nil {
		return want == "null" || want == "none"
	}
	return string(*have) == want
}

// CancelOrder marks the order cancelled and closed, optionally refunding an
// amount against its first successful sale or capture and restocking items.
func (s *OrderService) CancelOrder(ctx context.Context, id string, in CancelInput) (*models.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order", id)
	}
	credit, err := s.cancel(order, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	if credit.IsPositive() {
		s.creditGiftCard(ctx, order, credit)
	}
	s.publish(ctx, models.EventCancelled, order, 8)
	return order, nil
}

// cancel applies the cancellation to order in memory and returns the amount to
// credit to the customer's gift card.
func (s *OrderService) cancel(order *models.Order, in CancelInput) (decimal.Decimal, error) {
	reason := strings.ToLower(strings.TrimSpace(in.Reason))
	if reason == "" {
		reason = "other"
	}
	if !contains(cancelReasons, reason) {
		return decimal.Zero, validationError("invalid reason: '%s'. Allowed values are: %s", in.Reason, strings.Join(cancelReasons, ", "))
	}
	if order.IsCancelled() {
		return decimal.Zero, fmt.Errorf("%w: order '%s' is already cancelled", ErrOrderState, order.ID)
	}

	var refund *models.Refund
	if strings.TrimSpace(in.Amount) != "" {
		r, err := s.cancellationRefund(order, in)
		if err != nil {
			return decimal.Zero, err
		}
		refund = r
	}

	now := s.timestamp()
	order.CancelledAt = models.StringPtr(now)
	order.ClosedAt = models.StringPtr(now)
	order.CancelReason = models.StringPtr(reason)
	order.UpdatedAt = now

	credit := decimal.Zero
	if refund != nil {
		order.Refunds = append(order.Refunds, *refund)
		tx := refund.Transactions[0]
		if tx.Gateway == "manual" && order.Customer != nil && order.Customer.ID != "" {
			credit = mustDecimal(tx.Amount)
		}
	}
	if in.Restock {
		for i := range order.LineItems {
			order.LineItems[i].FulfillmentStatus = models.FulfillmentPtr(models.FulfillmentRestocked)
		}
	}
	s.derive(order)
	return credit, nil
}

func (s *OrderService) cancellationRefund(order *models.Order, in CancelInput) (*models.Refund, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return nil, validationError("invalid amount format")
	}
	total := mustDecimal(order.TotalPrice)
	if amount.GreaterThan(total) {
		return nil, validationError("refund amount cannot exceed order total")
	}
	if !amount.IsPositive() {
		return nil, validationError("refund amount must be positive")
	}

	var parent *models.Transaction
	for i := range order.Transactions {
		t := &order.Transactions[i]
		if (t.Kind == models.KindSale || t.Kind == models.KindCapture) && t.Status == models.TransactionSuccess {
			parent = t
			break
		}
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: order '%s' has no successful sale or capture transaction to refund against", ErrOrderState, order.ID)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = order.Currency
	}
	if currency != order.Currency {
		return nil, fmt.Errorf("%w: refund currency (%s) does not match order currency (%s)", ErrPayment, currency, order.Currency)
	}

	gateway := parent.Gateway
	if gateway == "" {
		gateway = "manual"
	}
	now := s.timestamp()
	txID := nextTransactionID(order.AllTransactions())
	refundID := nextRefundID(order.Refunds)

	var lines []models.RefundLineItem
	if amount.Equal(total) {
		restockType := "no_restock"
		if in.Restock {
			restockType = "return"
		}
		for _, li := range order.LineItems {
			lines = append(lines, models.RefundLineItem{LineItemID: li.ID, Quantity: li.Quantity, RestockType: restockType})
		}
	}
	if lines == nil {
		lines = []models.RefundLineItem{}
	}

	return &models.Refund{
		ID:        refundID,
		OrderID:   order.ID,
		CreatedAt: now,
		Note:      "Order cancellation refund.",
		Currency:  currency,
		Transactions: []models.Transaction{{
			ID:                      txID,
			OrderID:                 order.ID,
			Kind:                    models.KindRefund,
			Status:                  models.TransactionSuccess,
			Amount:                  amount.StringFixed(2),
			Currency:                currency,
			ParentID:                models.StringPtr(parent.ID),
			Gateway:                 gateway,
			Message:                 "Transaction approved.",
			SourceName:              "api",
			CreatedAt:               now,
			ProcessedAt:             models.StringPtr(now),
			OriginalPaymentMethodID: parent.OriginalPaymentMethodID,
		}},
		RefundLineItems: lines,
	}, nil
}

// CloseOrder closes a settled order whose shippable items are all fulfilled
// or restocked.
func (s *OrderService) CloseOrder(ctx context.Context, id string) (*models.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order", id)
	}
	if order.IsClosed() {
		return nil, fmt.Errorf("%w: order '%s' is already closed", ErrOrderState, id)
	}
	if order.IsCancelled() {
		return nil, fmt.Errorf("%w: order '%s' is cancelled and cannot be closed", ErrOrderState, id)
	}
	for _, li := range order.LineItems {
		if li.RequiresShipping && !lineItemDone(li) {
			return nil, fmt.Errorf("%w: order '%s' has pending fulfillments and cannot be closed", ErrOrderState, id)
		}
	}
	switch order.FinancialStatus {
	case models.FinancialPaid, models.FinancialRefunded, models.FinancialPartiallyRefunded, models.FinancialVoided:
	default:
		if !(order.FinancialStatus == models.FinancialPending && mustDecimal(order.TotalPrice).IsZero()) {
			return nil, fmt.Errorf("%w: order '%s' is not financially settled and cannot be closed", ErrOrderState, id)
		}
	}

	now := s.timestamp()
	order.ClosedAt = models.StringPtr(now)
	order.UpdatedAt = now
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventClosed, order, 5)
	return order, nil
}

func (s *OrderService) ReopenOrder(ctx context.Context, id string) (*models.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order", id)
	}
	if order.IsCancelled() {
		return nil, fmt.Errorf("%w: order '%s' is cancelled and cannot be re-opened", ErrOrderState, id)
	}
	if !order.IsClosed() {
		return nil, fmt.Errorf("%w: order '%s' is not closed", ErrOrderState, id)
	}
	order.ClosedAt = nil
	order.UpdatedAt = s.timestamp()
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventReopened, order, 5)
	return order, nil
}

// FulfillLineItems marks the given line items fulfilled. With no ids, every
// shippable item that is not yet fulfilled or restocked is marked.
func (s *OrderService) FulfillLineItems(ctx context.Context, id string, lineItemIDs []string) (*models.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order", id)
	}
	if order.IsCancelled() {
		return nil, fmt.Errorf("%w: order '%s' is cancelled", ErrOrderState, id)
	}

	marked := 0
	if len(lineItemIDs) == 0 {
		for i := range order.LineItems {
			li := &order.LineItems[i]
			if li.RequiresShipping && !lineItemDone(*li) {
				li.FulfillmentStatus = models.FulfillmentPtr(models.FulfillmentFulfilled)
				marked++
			}
		}
	} else {
		index := make(map[string]int, len(order.LineItems))
		for i, li := range order.LineItems {
			index[li.ID] = i
		}
		for _, liID := range lineItemIDs {
			i, ok := index[liID]
			if !ok {
				return nil, validationError("line item '%s' not found on order '%s'", liID, id)
			}
			li := &order.LineItems[i]
			if li.FulfillmentStatus != nil && *li.FulfillmentStatus == models.FulfillmentRestocked {
				return nil, fmt.Errorf("%w: line item '%s' was restocked", ErrOrderState, liID)
			}
			if li.FulfillmentStatus == nil || *li.FulfillmentStatus != models.FulfillmentFulfilled {
				li.FulfillmentStatus = models.FulfillmentPtr(models.FulfillmentFulfilled)
				marked++
			}
		}
	}
	if marked == 0 {
		return nil, fmt.Errorf("%w: order '%s' has nothing left to fulfill", ErrOrderState, id)
	}

	order.UpdatedAt = s.timestamp()
	s.derive(order)
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, models.EventFulfilled, order, 5)
	return order, nil
}

// RecomputeStatus re-derives both statuses and saves the order if either
// changed.
func (s *OrderService) RecomputeStatus(ctx context.Context, id string) (*models.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order", id)
	}
	prevFulfillment := order.FulfillmentStatus
	financialChanged := s.derive(order)
	if !financialChanged && sameFulfillment(prevFulfillment, order.FulfillmentStatus) {
		return order, nil
	}
	order.UpdatedAt = s.timestamp()
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// CheckPayment cancels an order that is still awaiting payment. It reports
// whether the order was cancelled.
func (s *OrderService) CheckPayment(ctx context.Context, id string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return false, notFound(err, "Order", id)
	}
	if order.IsCancelled() || order.FinancialStatus != models.FinancialPending {
		return false, nil
	}
	if _, err := s.cancel(order, CancelInput{Reason: "other"}); err != nil {
		return false, err
	}
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return false, err
	}
	logger.FromContext(ctx).Info().Str("order_id", id).Msg("Auto-cancelled order due to non-payment")
	s.publish(ctx, models.EventCancelled, order, 8)
	return true, nil
}

// derive recomputes both statuses and reports whether the financial status
// changed.
func (s *OrderService) derive(order *models.Order) bool {
	prev := order.FinancialStatus
	changed := status.Apply(order)
	if changed && s.onFinancialChange != nil {
		s.onFinancialChange(prev, order.FinancialStatus)
	}
	return changed
}

func (s *OrderService) nextOrderNumber(ctx context.Context) (int, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return 0, err
	}
	next := firstOrderNumber
	for _, o := range orders {
		if o.OrderNumber >= next {
			next = o.OrderNumber + 1
		}
	}
	return next, nil
}

// creditGiftCard adds amount to the order customer's gift card balance. The
// refund it pays out is already saved, so a failure is logged rather than
// returned.
func (s *OrderService) creditGiftCard(ctx context.Context, order *models.Order, amount decimal.Decimal) {
	if order.Customer == nil || order.Customer.ID == "" {
		return
	}
	unlock := s.locks.Lock(customerKey(order.Customer.ID))
	defer unlock()

	l := logger.FromContext(ctx)
	customer, err := s.store.GetCustomer(ctx, order.Customer.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn().Str("customer_id", order.Customer.ID).Msg("Gift card credit skipped, customer missing")
			return
		}
		l.Error().Err(err).Str("customer_id", order.Customer.ID).Str("order_id", order.ID).Msg("Gift card credit failed")
		return
	}
	balance := decimal.Zero
	if customer.GiftCardBalance != nil {
		if b, err := decimal.NewFromString(*customer.GiftCardBalance); err == nil {
			balance = b
		}
	}
	customer.GiftCardBalance = models.StringPtr(balance.Add(amount).StringFixed(2))
	customer.UpdatedAt = s.timestamp()
	if err := s.store.SaveCustomer(ctx, customer); err != nil {
		l.Error().Err(err).
			Str("customer_id", customer.ID).
			Str("order_id", order.ID).
			Str("amount", amount.StringFixed(2)).
			Msg("Gift card credit failed")
	}
}

func (s *OrderService) event(eventType string, order *models.Order) models.OrderEvent {
	return models.OrderEvent{
		ID:                uuid.NewString(),
		OrderID:           order.ID,
		Type:              eventType,
		FinancialStatus:   order.FinancialStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		Total:             order.TotalPrice,
		Occurred:          s.now().UTC(),
	}
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order, priority uint8) {
	if err := s.events.Publish(ctx, s.event(eventType, order), priority); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("order_id", order.ID).
			Str("event", eventType).
			Msg("Failed to publish order event")
	}
}

func (s *OrderService) timestamp() string {
	return timeutil.Format(s.now())
}

func customerKey(id string) string {
	return "customer:" + id
}

func lineItemDone(li models.LineItem) bool {
	if li.FulfillmentStatus == nil {
		return false
	}
	return *li.FulfillmentStatus == models.FulfillmentFulfilled || *li.FulfillmentStatus == models.FulfillmentRestocked
}

func sameFulfillment(a, b *models.FulfillmentStatus) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// mustDecimal parses a value that has already been validated; anything
// unparsable counts as zero.
func mustDecimal(v string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func authorizationCode(txID string, at time.Time) string {
	return fmt.Sprintf("auth_%s_%s", txID, at.UTC().Format("20060102150405"))
}

// nextTransactionID is one past the largest numeric id; non-numeric ids are
// ignored.
func nextTransactionID(txs []models.Transaction) string {
	maxID := 0
	for _, t := range txs {
		if n, err := strconv.Atoi(t.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

func nextRefundID(refunds []models.Refund) string {
	maxID := 0
	for _, r := range refunds {
		if n, err := strconv.Atoi(r.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}
