package models

import (
	"bytes"
	"encoding/json"
)

type Address struct {
	ID           string   `json:"id"`
	CustomerID   string   `json:"customer_id,omitempty"`
	Address1     *string  `json:"address1"`
	Address2     *string  `json:"address2"`
	City         *string  `json:"city"`
	Province     *string  `json:"province"`
	Country      *string  `json:"country"`
	Zip          *string  `json:"zip"`
	Phone        *string  `json:"phone"`
	FirstName    *string  `json:"first_name"`
	LastName     *string  `json:"last_name"`
	Company      *string  `json:"company"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	ProvinceCode *string  `json:"province_code"`
	CountryCode  *string  `json:"country_code"`
	CountryName  *string  `json:"country_name"`
	Default      bool     `json:"default"`
}

type PaymentMethod struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Gateway   string  `json:"gateway"`
	LastFour  *string `json:"last_four"`
	Brand     *string `json:"brand"`
	IsDefault bool    `json:"is_default"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type Customer struct {
	ID                     string          `json:"id"`
	Email                  *string         `json:"email"`
	FirstName              *string         `json:"first_name"`
	LastName               *string         `json:"last_name"`
	OrdersCount            int             `json:"orders_count"`
	State                  *string         `json:"state"`
	TotalSpent             *string         `json:"total_spent"`
	Phone                  *string         `json:"phone"`
	Tags                   *string         `json:"tags"`
	CreatedAt              string          `json:"created_at"`
	UpdatedAt              string          `json:"updated_at"`
	DefaultAddress         *Address        `json:"default_address"`
	Addresses              []Address       `json:"addresses"`
	GiftCardBalance        *string         `json:"gift_card_balance"`
	PaymentMethods         []PaymentMethod `json:"payment_methods"`
	DefaultPaymentMethodID *string         `json:"default_payment_method_id"`
}

// CustomerFields and AddressFields are the names a caller may select in a
// field projection.
var CustomerFields = map[string]bool{
	"id": true, "email": true, "first_name": true, "last_name": true,
	"orders_count": true, "state": true, "total_spent": true, "phone": true,
	"tags": true, "created_at": true, "updated_at": true, "default_address": true,
	"addresses": true, "gift_card_balance": true, "payment_methods": true,
	"default_payment_method_id": true,
}

var AddressFields = map[string]bool{
	"id": true, "customer_id": true, "address1": true, "address2": true,
	"city": true, "province": true, "country": true, "zip": true, "phone": true,
	"first_name": true, "last_name": true, "company": true, "latitude": true,
	"longitude": true, "province_code": true, "country_code": true,
	"country_name": true, "default": true,
}

// ToRecord flattens the customer into the generic map the query engine
// evaluates. Numbers decode as json.Number so integer and decimal fields keep
// their exact text.
func (c *Customer) ToRecord() (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	rec := make(map[string]any)
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// OwnsPaymentMethod reports whether id is one of the customer's payment
// methods and returns it.
func (c *Customer) OwnsPaymentMethod(id string) (*PaymentMethod, bool) {
	for i := range c.PaymentMethods {
		if c.PaymentMethods[i].ID == id {
			return &c.PaymentMethods[i], true
		}
	}
	return nil, false
}
