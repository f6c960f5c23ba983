package status

import "commerce-sim/models"

// Fulfillment derives the order-level fulfillment status from its shippable
// line items. A nil result means the order has nothing to ship.
func Fulfillment(order *models.Order) *models.FulfillmentStatus {
	shippable, fulfilled := 0, 0
	for _, item := range order.LineItems {
		if !item.RequiresShipping {
			continue
		}
		shippable++
		if item.FulfillmentStatus != nil && *item.FulfillmentStatus == models.FulfillmentFulfilled {
			fulfilled++
		}
	}
	if shippable == 0 {
		return nil
	}

	// Cancelled and never shipped: the items were restocked, nothing to report.
	if order.IsCancelled() && fulfilled == 0 {
		return nil
	}

	switch {
	case fulfilled == shippable:
		return models.FulfillmentPtr(models.FulfillmentFulfilled)
	case fulfilled > 0:
		return models.FulfillmentPtr(models.FulfillmentPartial)
	default:
		return models.FulfillmentPtr(models.FulfillmentUnfulfilled)
	}
}

// Apply recomputes both derived fields on order in place and reports whether
// the financial status changed.
func Apply(order *models.Order) bool {
	prev := order.FinancialStatus
	order.FinancialStatus = Financial(order)
	order.FulfillmentStatus = Fulfillment(order)
	return prev != order.FinancialStatus
}
