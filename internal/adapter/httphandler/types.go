package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type (
	Product struct {
		ID          string           `json:"id"`
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Price       decimal.Decimal  `json:"price"`
		OldPrice    *decimal.Decimal `json:"old_price"`
		Category    string           `json:"category"`
		Image       string           `json:"image"`
		Rating      float64          `json:"rating"`
		Stock       int              `json:"stock"`
		IsNew       bool             `json:"is_new"`
		IsPromo     bool             `json:"is_promo"`
		CreatedAt   time.Time        `json:"created_at"`
	}

	// A ProductInput is the body of product create and update requests.
	//
	// Absent fields stay nil.
	ProductInput struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		OldPrice    *decimal.Decimal `json:"old_price"`
		Category    *string          `json:"category"`
		Image       *string          `json:"image"`
		Rating      *float64         `json:"rating"`
		Stock       *int             `json:"stock"`
		IsNew       *bool            `json:"is_new"`
		IsPromo     *bool            `json:"is_promo"`
	}
)

type (
	CartItem struct {
		ProductID string          `json:"product_id"`
		Name      string          `json:"name"`
		Price     decimal.Decimal `json:"price"`
		Image     string          `json:"image"`
		Quantity  int             `json:"quantity"`
		Subtotal  decimal.Decimal `json:"subtotal"`
	}

	Cart struct {
		Items       []CartItem      `json:"items"`
		TotalItems  int             `json:"total_items"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}

	AddCartItem struct {
		ProductID string `json:"product_id"`
		Quantity  *int   `json:"quantity"`
	}

	UpdateCartItem struct {
		Quantity *int `json:"quantity"`
	}
)

type (
	CheckoutRequest struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}

	Payment struct {
		OrderID string          `json:"order_id"`
		Amount  decimal.Decimal `json:"amount"`
		Method  string          `json:"method"`
		Date    time.Time       `json:"date"`
		Items   []CartItem      `json:"items"`
	}
)

func productFromDomain(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		OldPrice:    p.OldPrice,
		Category:    p.Category,
		Image:       p.Image,
		Rating:      p.Rating,
		Stock:       p.Stock,
		IsNew:       p.IsNew,
		IsPromo:     p.IsPromo,
		CreatedAt:   p.CreatedAt,
	}
}

func productsFromDomain(ps []domain.Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = productFromDomain(p)
	}
	return out
}

func (in ProductInput) toPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		OldPrice:    in.OldPrice,
		Category:    in.Category,
		Image:       in.Image,
		Rating:      in.Rating,
		Stock:       in.Stock,
		IsNew:       in.IsNew,
		IsPromo:     in.IsPromo,
	}
}

func (in ProductInput) toProduct() domain.Product {
	return domain.Product{}.Apply(in.toPatch())
}

func itemsFromDomain(items []domain.LineItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, li := range items {
		out[i] = CartItem{
			ProductID: li.Product.ID,
			Name:      li.Product.Name,
			Price:     li.Product.Price,
			Image:     li.Product.Image,
			Quantity:  li.Quantity,
			Subtotal:  li.Subtotal(),
		}
	}
	return out
}

func cartFromDomain(s domain.Snapshot) Cart {
	return Cart{
		Items:       itemsFromDomain(s.Items),
		TotalItems:  s.TotalItems,
		TotalAmount: s.TotalAmount,
	}
}

func paymentFromDomain(p domain.Payment) Payment {
	return Payment{
		OrderID: p.OrderID,
		Amount:  p.Amount,
		Method:  p.Method,
		Date:    p.Date,
		Items:   itemsFromDomain(p.Items),
	}
}

func paymentsFromDomain(ps []domain.Payment) []Payment {
	out := make([]Payment, len(ps))
	for i, p := range ps {
		out[i] = paymentFromDomain(p)
	}
	return out
}
