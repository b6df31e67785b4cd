package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/domain"
)

// OrderFilter captures order search parameters.
type OrderFilter struct {
	ID       *string
	UserID   *string
	SellerID *string
	Statuses []domain.OrderStatus
	Limit    int
	Offset   int
}

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// SetStatusUnlessCompleted changes the status unless the stored order is completed.
	// It reports false when the order was already completed.
	SetStatusUnlessCompleted(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error)
	// DeleteUnlessCompleted removes the order unless it is completed and returns what was removed.
	// It reports false when the order was already completed.
	DeleteUnlessCompleted(ctx context.Context, id string) (*domain.Order, bool, error)
}

type orderRepository struct {
	db DB
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(db DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, lines, total_price, status, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (user_id, lines, total_price, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		order.UserID,
		order.Lines,
		order.TotalPrice,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	return translate(err)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ID != nil {
		args = append(args, *filter.ID)
		clauses = append(clauses, fmt.Sprintf("id=$%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.SellerID != nil {
		containment, err := json.Marshal([]map[string]string{{"seller_id": *filter.SellerID}})
		if err != nil {
			return nil, err
		}
		args = append(args, string(containment))
		clauses = append(clauses, fmt.Sprintf("lines @> $%d::jsonb", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`,
		orderColumns, strings.Join(clauses, " AND "), limitOrDefault(filter.Limit), offsetOrZero(filter.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *orderRepository) SetStatusUnlessCompleted(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error) {
	query := `
        UPDATE orders SET status=$2, updated_at=NOW()
        WHERE id=$1 AND status <> 'completed'
        RETURNING ` + orderColumns
	rows, err := r.db.Query(ctx, query, id, status)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, false, err
	}
	if len(orders) == 0 {
		return nil, false, nil
	}
	return &orders[0], true, nil
}

func (r *orderRepository) DeleteUnlessCompleted(ctx context.Context, id string) (*domain.Order, bool, error) {
	query := `
        DELETE FROM orders
        WHERE id=$1 AND status <> 'completed'
        RETURNING ` + orderColumns
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, false, err
	}
	if len(orders) == 0 {
		return nil, false, nil
	}
	return &orders[0], true, nil
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Lines,
			&order.TotalPrice,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}
