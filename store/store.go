// Package store persists orders and customers. Implementations return
// independent copies: callers may mutate what they load and must call Save
// for the change to stick.
package store

import (
	"context"
	"errors"

	"commerce-sim/models"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
	// ListOrders returns every order sorted by order number.
	ListOrders(ctx context.Context) ([]models.Order, error)

	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	SaveCustomer(ctx context.Context, customer *models.Customer) error
	// ListCustomers returns every customer sorted by id.
	ListCustomers(ctx context.Context) ([]models.Customer, error)
}
