package services

import (
	"context"
	"fmt"
	"strings"

	"commerce-sim/models"
	"commerce-sim/query"
	"commerce-sim/store"
)

const defaultCustomerOrder = "id ASC"

type CustomerService struct {
	store        store.Store
	defaultLimit int
	maxLimit     int
}

func NewCustomerService(st store.Store, defaultLimit, maxLimit int) *CustomerService {
	if maxLimit <= 0 {
		maxLimit = 250
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(50, maxLimit)
	}
	return &CustomerService{store: st, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

type SearchParams struct {
	Query    string
	Limit    int // 0 means the default
	PageInfo string
	Fields   []string // nil means every field
	Order    string
}

type PageInfo struct {
	NextPageToken     *string `json:"next_page_token"`
	PreviousPageToken *string `json:"previous_page_token"`
}

type SearchResult struct {
	Customers []query.Record `json:"customers"`
	PageInfo  PageInfo       `json:"page_info"`
}

// Search filters customers with the query language, sorts, pages by offset
// token and projects the requested fields.
func (s *CustomerService) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, validationError("query cannot be empty")
	}
	limit := p.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 || limit > s.maxLimit {
		return nil, validationError("limit must be an integer between 1 and %d", s.maxLimit)
	}
	if err := ValidateCustomerFields(p.Fields); err != nil {
		return nil, err
	}
	if p.Order != "" {
		if strings.TrimSpace(p.Order) == "" {
			return nil, validationError("order argument, if provided, cannot be empty")
		}
		if _, _, err := query.ParseSort(p.Order); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	dnf, err := query.Parse(p.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]query.Record, 0, len(customers))
	for i := range customers {
		rec, err := customers[i].ToRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, query.Record(rec))
	}

	matched := query.Filter(records, dnf)
	order := p.Order
	if order == "" && len(matched) > 0 {
		order = defaultCustomerOrder
	}
	sorted, err := query.Sort(matched, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	offset := 0
	if p.PageInfo != "" {
		offset, err = query.DecodePageToken(p.PageInfo)
		if err != nil || offset < 0 {
			return nil, validationError("invalid page_info token")
		}
	}

	start := min(offset, len(sorted))
	end := min(start+limit, len(sorted))
	result := &SearchResult{Customers: make([]query.Record, 0, end-start)}
	for _, rec := range sorted[start:end] {
		result.Customers = append(result.Customers, query.Project(rec, p.Fields))
	}
	if offset+limit < len(sorted) {
		result.PageInfo.NextPageToken = models.StringPtr(query.EncodePageToken(offset + limit))
	}
	if offset > 0 {
		result.PageInfo.PreviousPageToken = models.StringPtr(query.EncodePageToken(max(0, offset-limit)))
	}
	return result, nil
}

// GetCustomer returns one customer projected to fields.
func (s *CustomerService) GetCustomer(ctx context.Context, id string, fields []string) (query.Record, error) {
	if err := ValidateCustomerFields(fields); err != nil {
		return nil, err
	}
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, notFound(err, "Customer", id)
	}
	rec, err := c.ToRecord()
	if err != nil {
		return nil, err
	}
	return query.Project(rec, fields), nil
}

// CustomerOrders lists every order placed by the customer, oldest first.
func (s *CustomerService) CustomerOrders(ctx context.Context, id string) ([]models.Order, error) {
	if _, err := s.store.GetCustomer(ctx, id); err != nil {
		return nil, notFound(err, "Customer", id)
	}
	all, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0)
	for _, o := range all {
		if o.Customer != nil && o.Customer.ID == id {
			out = append(out, o)
		}
	}
	return out, nil
}

// ValidateCustomerFields checks a projection list. Dotted paths are allowed
// one level into default_address and addresses.
func ValidateCustomerFields(fields []string) error {
	for _, f := range fields {
		top, sub, nested := strings.Cut(strings.TrimSpace(f), ".")
		if !models.CustomerFields[top] {
			return validationError("invalid field name '%s'", f)
		}
		if !nested {
			continue
		}
		if top != "default_address" && top != "addresses" {
			return validationError("field '%s' does not support nested selection", top)
		}
		if !models.AddressFields[sub] {
			return validationError("invalid nested field '%s' for '%s'", sub, top)
		}
	}
	return nil
}
