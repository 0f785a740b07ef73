package httphandler_test

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

func (c *MockCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := c.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (c *MockCatalog) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	args := c.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (c *MockCatalog) CreateProduct(
	ctx context.Context, p domain.Product, image *domain.ImageUpload,
) (domain.Product, error) {
	args := c.Called(ctx, p, image)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (c *MockCatalog) UpdateProduct(
	ctx context.Context, id string, patch domain.ProductPatch, image *domain.ImageUpload,
) (domain.Product, error) {
	args := c.Called(ctx, id, patch, image)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (c *MockCatalog) DeleteProduct(ctx context.Context, id string) error {
	return c.Called(ctx, id).Error(0)
}

type MockCart struct {
	mock.Mock
}

func (c *MockCart) Cart(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	args := c.Called(ctx, sessionID)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (c *MockCart) AddToCart(
	ctx context.Context, sessionID, productID string, quantity int,
) (domain.Snapshot, error) {
	args := c.Called(ctx, sessionID, productID, quantity)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (c *MockCart) UpdateCartItem(
	ctx context.Context, sessionID, productID string, quantity int,
) (domain.Snapshot, error) {
	args := c.Called(ctx, sessionID, productID, quantity)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (c *MockCart) RemoveCartItem(
	ctx context.Context, sessionID, productID string,
) (domain.Snapshot, error) {
	args := c.Called(ctx, sessionID, productID)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (c *MockCart) ClearCart(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	args := c.Called(ctx, sessionID)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (c *MockCart) EndSession(ctx context.Context, sessionID string) error {
	return c.Called(ctx, sessionID).Error(0)
}

type MockCheckout struct {
	mock.Mock
}

func (c *MockCheckout) Checkout(
	ctx context.Context, sessionID string, d domain.CheckoutDetails,
) (domain.Payment, error) {
	args := c.Called(ctx, sessionID, d)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (c *MockCheckout) Payments(ctx context.Context, sessionID string) ([]domain.Payment, error) {
	args := c.Called(ctx, sessionID)
	ps, _ := args.Get(0).([]domain.Payment)
	return ps, args.Error(1)
}
