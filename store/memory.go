package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"commerce-sim/models"
)

// MemoryStore keeps JSON-encoded documents in maps, so every read decodes a
// fresh copy.
type MemoryStore struct {
	mu        sync.RWMutex
	orders    map[string][]byte
	customers map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string][]byte),
		customers: make(map[string][]byte),
	}
}

// Fixture is the seed file layout: documents keyed by id.
type Fixture struct {
	Orders    map[string]models.Order    `json:"orders"`
	Customers map[string]models.Customer `json:"customers"`
}

// LoadFile seeds the store from a fixture file. Map keys win over any id in
// the document body.
func (s *MemoryStore) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return s.Seed(fx)
}

func (s *MemoryStore) Seed(fx Fixture) error {
	ctx := context.Background()
	for id, o := range fx.Orders {
		o.ID = id
		if err := s.SaveOrder(ctx, &o); err != nil {
			return err
		}
	}
	for id, c := range fx.Customers {
		c.ID = id
		if err := s.SaveCustomer(ctx, &c); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	raw, ok := s.orders[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	var o models.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MemoryStore) SaveOrder(_ context.Context, order *models.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.orders[order.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListOrders(_ context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0, len(s.orders))
	for _, raw := range s.orders {
		var o models.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderNumber != out[j].OrderNumber {
			return out[i].OrderNumber < out[j].OrderNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	raw, ok := s.customers[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	var c models.Customer
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) SaveCustomer(_ context.Context, customer *models.Customer) error {
	raw, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.customers[customer.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListCustomers(_ context.Context) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Customer, 0, len(s.customers))
	for _, raw := range s.customers {
		var c models.Customer
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
