package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidProductData = errors.New("invalid product data")

const maxRating = 5

// Normalize trims the product name and validates the record.
//
// The returned error wraps [ErrInvalidProductData] and names every
// violated constraint.
func (p *Product) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)

	var violations []string
	if p.Name == "" {
		violations = append(violations, "name is required")
	}
	if p.Description == "" {
		violations = append(violations, "description is required")
	}
	if p.Price.IsNegative() {
		violations = append(violations, "price must be >= 0")
	}
	if p.OldPrice != nil && p.OldPrice.IsNegative() {
		violations = append(violations, "old price must be >= 0")
	}
	if p.Category == "" {
		violations = append(violations, "category is required")
	}
	if p.Image == "" {
		violations = append(violations, "image is required")
	}
	if p.Rating < 0 || p.Rating > maxRating {
		violations = append(violations, "rating must be between 0 and 5")
	}
	if p.Stock < 0 {
		violations = append(violations, "stock must be >= 0")
	}

	if len(violations) != 0 {
		return fmt.Errorf(
			"%w: %s", ErrInvalidProductData, strings.Join(violations, "; "),
		)
	}
	return nil
}
