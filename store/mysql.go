package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"commerce-sim/models"
)

type documentRow struct {
	ID       string `db:"id"`
	Document []byte `db:"document"`
}

// MySQLStore keeps each order and customer as a JSON document row. The
// schema is created by database.InitDB.
type MySQLStore struct {
	db *sqlx.DB
}

func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `SELECT id, document FROM orders WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("order store get: %w", err)
	}
	var o models.Order
	if err := json.Unmarshal(row.Document, &o); err != nil {
		return nil, fmt.Errorf("order %s: decode: %w", id, err)
	}
	return &o, nil
}

func (s *MySQLStore) SaveOrder(ctx context.Context, order *models.Order) error {
	doc, err := json.Marshal(order)
	if err != nil {
		return err
	}
	var customerID *string
	if order.Customer != nil && order.Customer.ID != "" {
		customerID = &order.Customer.ID
	}
	query := `
		INSERT INTO orders (id, order_number, customer_id, created_at, document)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			order_number = VALUES(order_number),
			customer_id = VALUES(customer_id),
			document = VALUES(document)
	`
	if _, err := s.db.ExecContext(ctx, query, order.ID, order.OrderNumber, customerID, order.CreatedAt, doc); err != nil {
		return fmt.Errorf("order store save: %w", err)
	}
	return nil
}

func (s *MySQLStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, document FROM orders ORDER BY order_number, id`); err != nil {
		return nil, fmt.Errorf("order store list: %w", err)
	}
	out := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		var o models.Order
		if err := json.Unmarshal(row.Document, &o); err != nil {
			return nil, fmt.Errorf("order %s: decode: %w", row.ID, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *MySQLStore) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `SELECT id, document FROM customers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("customer store get: %w", err)
	}
	var c models.Customer
	if err := json.Unmarshal(row.Document, &c); err != nil {
		return nil, fmt.Errorf("customer %s: decode: %w", id, err)
	}
	return &c, nil
}

func (s *MySQLStore) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	doc, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO customers (id, document) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE document = VALUES(document)
	`
	if _, err := s.db.ExecContext(ctx, query, customer.ID, doc); err != nil {
		return fmt.Errorf("customer store save: %w", err)
	}
	return nil
}

func (s *MySQLStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, document FROM customers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("customer store list: %w", err)
	}
	out := make([]models.Customer, 0, len(rows))
	for _, row := range rows {
		var c models.Customer
		if err := json.Unmarshal(row.Document, &c); err != nil {
			return nil, fmt.Errorf("customer %s: decode: %w", row.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}
