package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

var ErrMalformedSnapshot = errors.New("malformed cart snapshot")

// lineItemV1 is the persisted form of a line item:
// the product fields flattened next to the quantity.
type lineItemV1 struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Marshal serializes the line items in order.
func Marshal(items []domain.LineItem) ([]byte, error) {
	vs := make([]lineItemV1, 0, len(items))
	for _, li := range items {
		vs = append(vs, lineItemV1{
			ID:       li.Product.ID,
			Name:     li.Product.Name,
			Price:    li.Product.Price,
			Image:    li.Product.Image,
			Quantity: li.Quantity,
		})
	}
	return json.Marshal(vs)
}

// Unmarshal restores line items written by [Marshal].
//
// Data violating the cart invariants is rejected as a whole
// with [ErrMalformedSnapshot].
func Unmarshal(data []byte) ([]domain.LineItem, error) {
	var vs []lineItemV1
	if err := json.Unmarshal(data, &vs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	items := make([]domain.LineItem, 0, len(vs))
	seen := make(map[string]struct{}, len(vs))
	for i, v := range vs {
		switch {
		case v.ID == "":
			return nil, fmt.Errorf("%w: item %d: empty id", ErrMalformedSnapshot, i)
		case v.Quantity < 1:
			return nil, fmt.Errorf(
				"%w: item %q: quantity %d", ErrMalformedSnapshot, v.ID, v.Quantity,
			)
		case v.Price.IsNegative():
			return nil, fmt.Errorf("%w: item %q: negative price", ErrMalformedSnapshot, v.ID)
		}
		if _, ok := seen[v.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate item %q", ErrMalformedSnapshot, v.ID)
		}
		seen[v.ID] = struct{}{}

		items = append(items, domain.LineItem{
			Product: domain.ProductRef{
				ID:    v.ID,
				Name:  v.Name,
				Price: v.Price,
				Image: v.Image,
			},
			Quantity: v.Quantity,
		})
	}
	return items, nil
}
