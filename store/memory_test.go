package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-sim/models"
)

func TestMemoryStoreOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveOrder(ctx, &models.Order{ID: "b", OrderNumber: 1002, TotalPrice: "10.00"}))
	require.NoError(t, s.SaveOrder(ctx, &models.Order{ID: "a", OrderNumber: 1001, TotalPrice: "5.00"}))

	got, err := s.GetOrder(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.TotalPrice)

	list, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.SaveOrder(ctx, &models.Order{
		ID:        "1",
		LineItems: []models.LineItem{{ID: "li1", Quantity: 1, Price: "1.00"}},
	}))

	first, err := s.GetOrder(ctx, "1")
	require.NoError(t, err)
	first.LineItems[0].Quantity = 99

	second, err := s.GetOrder(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, second.LineItems[0].Quantity)
}

func TestMemoryStoreCustomers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetCustomer(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveCustomer(ctx, &models.Customer{ID: "2", Email: models.StringPtr("b@example.com")}))
	require.NoError(t, s.SaveCustomer(ctx, &models.Customer{ID: "10", Email: models.StringPtr("a@example.com")}))

	list, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "10", list[0].ID)
	assert.Equal(t, "2", list[1].ID)
}

func TestLoadFile(t *testing.T) {
	fixture := `{
		"orders": {
			"o1": {"order_number": 1001, "currency": "USD", "total_price": "20.00",
			       "transactions": [{"id": "1", "kind": "sale", "status": "success", "amount": "20.00"}]}
		},
		"customers": {
			"c1": {"email": "bob@example.com", "orders_count": 1}
		}
	}`
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	s := NewMemoryStore()
	require.NoError(t, s.LoadFile(path))

	o, err := s.GetOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
	require.Len(t, o.Transactions, 1)
	assert.Equal(t, models.KindSale, o.Transactions[0].Kind)

	c, err := s.GetCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, 1, c.OrdersCount)
}

func TestLoadFileErrors(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.LoadFile(filepath.Join(t.TempDir(), "nope.json")))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	assert.Error(t, s.LoadFile(path))
}
