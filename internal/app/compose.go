package app

import (
	"context"

	"github.com/jimz159753/omnia-api/internal/domain"
)

type ProductLookup interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type ServiceLookup interface {
	ServicesByID(ctx context.Context, ids []string) (map[string]domain.Service, error)
}

// LineItemRequest is one raw entry from a create/update request. Exactly
// one of ProductID/ServiceID must be set; ProductID wins when both are.
type LineItemRequest struct {
	ProductID   string
	ServiceID   string
	Quantity    int
	UnitPrice   *float64
	Total       *float64
	DiscountPct float64
}

// ComposedOrder is a normalized, fully priced order.
type ComposedOrder struct {
	Items []domain.LineItem
	// RequiredStock sums quantities across all entries referencing the
	// same product, so a product listed twice is checked against the
	// combined demand.
	RequiredStock map[string]int
	TotalQuantity int
	Total         float64
}

// Composer turns heterogeneous line-item requests into priced entries and
// aggregate totals, inferring missing unit prices from the catalog.
type Composer struct {
	products ProductLookup
	services ServiceLookup
}

func NewComposer(products ProductLookup, services ServiceLookup) *Composer {
	return &Composer{
		products: products,
		services: services,
	}
}

func (c *Composer) Compose(ctx context.Context, items []LineItemRequest) (ComposedOrder, error) {
	if len(items) == 0 {
		return ComposedOrder{}, domain.ErrNoItems
	}

	var productIDs, serviceIDs []string
	for _, it := range items {
		switch {
		case it.ProductID != "":
			productIDs = append(productIDs, it.ProductID)
		case it.ServiceID != "":
			serviceIDs = append(serviceIDs, it.ServiceID)
		default:
			return ComposedOrder{}, domain.ErrItemReferenceRequired
		}
	}

	products := map[string]domain.Product{}
	if len(productIDs) > 0 {
		var err error
		products, err = c.products.ProductsByID(ctx, productIDs)
		if err != nil {
			return ComposedOrder{}, err
		}
	}
	services := map[string]domain.Service{}
	if len(serviceIDs) > 0 {
		var err error
		services, err = c.services.ServicesByID(ctx, serviceIDs)
		if err != nil {
			return ComposedOrder{}, err
		}
	}

	order := ComposedOrder{RequiredStock: make(map[string]int)}
	for _, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}

		var line domain.LineItem
		if it.ProductID != "" {
			product, ok := products[it.ProductID]
			if !ok {
				return ComposedOrder{}, domain.ErrInvalidProductRef
			}
			unitPrice := product.Cost
			if it.UnitPrice != nil {
				unitPrice = *it.UnitPrice
			}
			line = domain.ProductItem(it.ProductID, qty, unitPrice, lineTotal(it.Total, unitPrice, qty))
			order.RequiredStock[it.ProductID] += qty
		} else {
			service, ok := services[it.ServiceID]
			if !ok {
				return ComposedOrder{}, domain.ErrInvalidServiceRef
			}
			unitPrice := service.Price
			if it.UnitPrice != nil {
				unitPrice = *it.UnitPrice
			}
			line = domain.ServiceItem(it.ServiceID, qty, unitPrice, lineTotal(it.Total, unitPrice, qty))
		}

		line.DiscountPct = clampDiscount(it.DiscountPct)
		order.Items = append(order.Items, line)
		order.TotalQuantity += qty
		order.Total += line.Total
	}

	return order, nil
}

func lineTotal(explicit *float64, unitPrice float64, qty int) float64 {
	if explicit != nil {
		return *explicit
	}
	return unitPrice * float64(qty)
}

func clampDiscount(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
