package domain

type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindService ItemKind = "service"
)

// LineItem is a priced entry on a ticket referencing exactly one product
// or one service. The Kind/RefID pair is the tagged union; the
// constructors below are the only way the rest of the engine builds one.
type LineItem struct {
	ID          string
	TicketID    string
	Kind        ItemKind
	RefID       string
	Quantity    int
	UnitPrice   float64
	DiscountPct float64
	Total       float64
}

// ProductItem builds a product line item.
func ProductItem(productID string, quantity int, unitPrice, total float64) LineItem {
	return LineItem{
		Kind:      ItemKindProduct,
		RefID:     productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     total,
	}
}

// ServiceItem builds a service line item.
func ServiceItem(serviceID string, quantity int, unitPrice, total float64) LineItem {
	return LineItem{
		Kind:      ItemKindService,
		RefID:     serviceID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     total,
	}
}
