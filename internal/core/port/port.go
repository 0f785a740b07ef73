package port

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound

type Catalog interface {
	ListProducts(context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(context.Context, domain.Product, *domain.ImageUpload) (domain.Product, error)
	UpdateProduct(
		ctx context.Context,
		id string,
		patch domain.ProductPatch,
		image *domain.ImageUpload,
	) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type Cart interface {
	Cart(ctx context.Context, sessionID string) (domain.Snapshot, error)
	AddToCart(ctx context.Context, sessionID, productID string, quantity int) (domain.Snapshot, error)
	UpdateCartItem(ctx context.Context, sessionID, productID string, quantity int) (domain.Snapshot, error)
	RemoveCartItem(ctx context.Context, sessionID, productID string) (domain.Snapshot, error)
	ClearCart(ctx context.Context, sessionID string) (domain.Snapshot, error)
	EndSession(ctx context.Context, sessionID string) error
}

type Checkout interface {
	Checkout(context.Context, string, domain.CheckoutDetails) (domain.Payment, error)
	Payments(ctx context.Context, sessionID string) ([]domain.Payment, error)
}

// Outbound

type ProductsStorage interface {
	ListProducts(context.Context) ([]domain.Product, error)
	ReadProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(context.Context, domain.Product) (domain.Product, error)
	UpdateProduct(context.Context, domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type ImageStorage interface {
	SaveImage(context.Context, domain.ImageUpload) (path string, err error)
}

// A SnapshotStorage is the key-value store the cart persists to.
type SnapshotStorage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// A Notifier delivers cart notices. Delivery is fire-and-forget
// for the caller: returned errors are only logged.
type Notifier interface {
	Notify(context.Context, domain.Notice) error
}

type Payer interface {
	Pay(context.Context, decimal.Decimal, domain.CheckoutDetails) error
}

type PaymentsRecorder interface {
	RecordPayment(context.Context, domain.Payment) error
}

type PaymentsHistory interface {
	PaymentHistory(ctx context.Context, sessionID string) ([]domain.Payment, error)
}

type PaymentHistoryProcessor interface {
	runnerContextWg
	closer
}
