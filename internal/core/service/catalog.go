package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	const op = "Service.GetProduct"

	p, err := s.products.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CreateProduct validates the product, stores the optional image
// and saves the record. The stored image path replaces p.Image.
func (s *Service) CreateProduct(
	ctx context.Context, p domain.Product, image *domain.ImageUpload,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	p, err := s.prepareProduct(ctx, p, image)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.products.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateProduct changes only the patched fields of the stored product.
func (s *Service) UpdateProduct(
	ctx context.Context,
	id string,
	patch domain.ProductPatch,
	image *domain.ImageUpload,
) (domain.Product, error) {
	const op = "Service.UpdateProduct"

	stored, err := s.products.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.prepareProduct(ctx, stored.Apply(patch), image)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	const op = "Service.DeleteProduct"

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// prepareProduct validates p before the image is written,
// so a rejected submission leaves no file behind.
func (s *Service) prepareProduct(
	ctx context.Context, p domain.Product, image *domain.ImageUpload,
) (domain.Product, error) {
	if image != nil {
		p.Image = image.Filename
	}
	if err := p.Normalize(); err != nil {
		return domain.Product{}, err
	}

	if image == nil {
		return p, nil
	}

	path, err := s.images.SaveImage(ctx, *image)
	if err != nil {
		return domain.Product{}, err
	}
	p.Image = path
	return p, nil
}
