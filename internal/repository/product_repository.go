package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/domain"
)

// ProductFilter captures catalog paging.
type ProductFilter struct {
	Category string
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// ProductRepository is the catalog store.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	// Update writes descriptive fields and price. Quantity is never written here.
	Update(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs resolves ids in one round trip; unknown ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	Delete(ctx context.Context, id string) error
	// ConditionalDecrement subtracts amount only if the stored quantity is still >= amount
	// at the moment of the write. It reports whether the write happened.
	ConditionalDecrement(ctx context.Context, id string, amount int64) (bool, error)
	// AdjustQuantity adds delta (possibly negative) unless the result would drop below zero.
	AdjustQuantity(ctx context.Context, id string, delta int64) (*domain.Product, error)
}

type productRepository struct {
	db DB
}

// NewProductRepository returns a Postgres-backed implementation.
func NewProductRepository(db DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, price, description, image, category, quantity, owner_id, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (name, price, description, image, category, quantity, owner_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		product.Name,
		product.Price,
		product.Description,
		product.Image,
		product.Category,
		product.Quantity,
		product.OwnerID,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	return translate(err)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	const query = `
        UPDATE products SET name=$1, price=$2, description=$3, image=$4, category=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING quantity, updated_at`
	err := r.db.QueryRow(ctx, query,
		product.Name,
		product.Price,
		product.Description,
		product.Image,
		product.Category,
		product.ID,
	).Scan(&product.Quantity, &product.UpdatedAt)
	return translate(err)
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"quantity":   "quantity",
	"created_at": "created_at",
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	where := "1=1"
	args := []any{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = fmt.Sprintf("category=$%d", len(args))
	}
	order := "created_at"
	if col, ok := productSortColumns[filter.SortBy]; ok {
		order = col
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d`,
		productColumns, where, order, direction, limitOrDefault(filter.Limit), offsetOrZero(filter.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) ConditionalDecrement(ctx context.Context, id string, amount int64) (bool, error) {
	const query = `
        UPDATE products SET quantity = quantity - $2, updated_at = NOW()
        WHERE id = $1 AND quantity >= $2`
	cmd, err := r.db.Exec(ctx, query, id, amount)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *productRepository) AdjustQuantity(ctx context.Context, id string, delta int64) (*domain.Product, error) {
	query := `
        UPDATE products SET quantity = quantity + $2, updated_at = NOW()
        WHERE id = $1 AND quantity + $2 >= 0
        RETURNING ` + productColumns
	rows, err := r.db.Query(ctx, query, id, delta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Price,
			&p.Description,
			&p.Image,
			&p.Category,
			&p.Quantity,
			&p.OwnerID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
