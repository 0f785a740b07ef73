package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

const productColumns = `
	id, name, description, price, old_price, category,
	image, rating, stock, is_new, is_promo, created_at`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) ListProducts(
	ctx context.Context,
) (ps []domain.Product, err error) {
	const op = "ProductsRepository.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT` + productColumns + `
		FROM products
		ORDER BY created_at DESC;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s: failed to close rows: %w", op, closeErr)
		}
	}()

	ps = make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if !isUUID(id) {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}

	query := `SELECT` + productColumns + `
		FROM products
		WHERE id = $1;`

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CreateProduct inserts p, assigning its id and creation time when unset.
func (r ProductsRepository) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := r.sqldb.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, nullDecimal(p.OldPrice), p.Category,
		p.Image, p.Rating, p.Stock, p.IsNew, p.IsPromo, p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return p, nil
}

// UpdateProduct overwrites every mutable column of the product.
func (r ProductsRepository) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if !isUUID(p.ID) {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}

	query := `
		UPDATE products SET
			name = $2,
			description = $3,
			price = $4,
			old_price = $5,
			category = $6,
			image = $7,
			rating = $8,
			stock = $9,
			is_new = $10,
			is_promo = $11
		WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, nullDecimal(p.OldPrice), p.Category,
		p.Image, p.Rating, p.Stock, p.IsNew, p.IsPromo,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to exec: %w", op, err)
	}

	if err := expectOneRow(res); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r ProductsRepository) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductsRepository.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !isUUID(id) {
		return fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}

	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}

	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		oldPrice decimal.NullDecimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &oldPrice, &p.Category,
		&p.Image, &p.Rating, &p.Stock, &p.IsNew, &p.IsPromo, &p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	if oldPrice.Valid {
		p.OldPrice = &oldPrice.Decimal
	}
	return p, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}
