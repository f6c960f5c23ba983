package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"commerce-sim/models"
	"commerce-sim/store"
)

type publishedEvent struct {
	event    models.OrderEvent
	priority uint8
	delay    time.Duration
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e models.OrderEvent, priority uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{event: e, priority: priority})
	return nil
}

func (p *recordingPublisher) PublishDelayed(_ context.Context, e models.OrderEvent, delay time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{event: e, delay: delay})
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// customerWriteFailure fails customer writes once armed.
type customerWriteFailure struct {
	*store.MemoryStore
	armed atomic.Bool
}

func (s *customerWriteFailure) SaveCustomer(ctx context.Context, c *models.Customer) error {
	if s.armed.Load() {
		return errors.New("customer table locked")
	}
	return s.MemoryStore.SaveCustomer(ctx, c)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	store     *store.MemoryStore
	events    *recordingPublisher
	orders    *OrderService
	customers *CustomerService
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return &harness{
		store:     st,
		events:    pub,
		orders:    NewOrderService(st, pub, 15*time.Minute, opts...),
		customers: NewCustomerService(st, 50, 250),
	}
}

func (h *harness) saveCustomer(t *testing.T, c models.Customer) {
	t.Helper()
	require.NoError(t, h.store.SaveCustomer(context.Background(), &c))
}

func (h *harness) customer(t *testing.T, id string) *models.Customer {
	t.Helper()
	c, err := h.store.GetCustomer(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (h *harness) order(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := h.store.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}

// createOrder places an order of one shippable item at price, optionally with
// a manual sale for the full amount.
func (h *harness) createOrder(t *testing.T, customerID, price string, paid bool) *models.Order {
	t.Helper()
	in := CreateOrderInput{
		CustomerID: customerID,
		LineItems:  []LineItemInput{{Title: "Widget", Quantity: 1, Price: price}},
	}
	if paid {
		in.Transactions = []TransactionSeed{{Kind: models.KindSale, Amount: price, Gateway: "manual"}}
	}
	o, err := h.orders.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	return o
}
