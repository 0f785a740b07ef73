package domain

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// A Product is a catalog record.
	Product struct {
		ID          string
		Name        string
		Description string
		Price       decimal.Decimal
		OldPrice    *decimal.Decimal
		Category    string
		Image       string
		Rating      float64
		Stock       int
		IsNew       bool
		IsPromo     bool
		CreatedAt   time.Time
	}

	// A ProductPatch carries the fields of a partial product update.
	//
	// Nil fields are left unchanged.
	ProductPatch struct {
		Name        *string
		Description *string
		Price       *decimal.Decimal
		OldPrice    *decimal.Decimal
		Category    *string
		Image       *string
		Rating      *float64
		Stock       *int
		IsNew       *bool
		IsPromo     *bool
	}
)

// Ref returns the cart facing reference of the product.
func (p Product) Ref() ProductRef {
	return ProductRef{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
	}
}

// Apply returns a copy of p with the non-nil patch fields set.
func (p Product) Apply(patch ProductPatch) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.OldPrice != nil {
		v := *patch.OldPrice
		p.OldPrice = &v
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsNew != nil {
		p.IsNew = *patch.IsNew
	}
	if patch.IsPromo != nil {
		p.IsPromo = *patch.IsPromo
	}
	return p
}

// An ImageUpload is an image file attached to a product submission.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}
