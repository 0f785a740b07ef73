package domain

import "github.com/shopspring/decimal"

type (
	// A ProductRef is the immutable product value held by the cart.
	ProductRef struct {
		ID    string
		Name  string
		Price decimal.Decimal
		Image string
	}

	LineItem struct {
		Product  ProductRef
		Quantity int
	}

	// A Snapshot is the ordered line items of a cart
	// with aggregates derived from them.
	Snapshot struct {
		Items       []LineItem
		TotalItems  int
		TotalAmount decimal.Decimal
	}
)

// Valid reports whether the reference can be put into a cart.
func (r ProductRef) Valid() bool {
	return r.ID != "" && r.Price.IsPositive()
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// NewSnapshot copies items and derives the aggregates.
func NewSnapshot(items []LineItem) Snapshot {
	s := Snapshot{
		Items:       make([]LineItem, len(items)),
		TotalAmount: decimal.Zero,
	}
	copy(s.Items, items)
	for _, li := range items {
		s.TotalItems += li.Quantity
		s.TotalAmount = s.TotalAmount.Add(li.Subtotal())
	}
	return s
}
