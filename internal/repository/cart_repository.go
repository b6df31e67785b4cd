package repository

import (
	"context"

	"github.com/spec-kit/shop-service/internal/domain"
)

// CartRepository persists one cart document per user.
type CartRepository interface {
	// Get returns the user's cart, or an empty cart when none was saved yet.
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) error
}

type cartRepository struct {
	db DB
}

// NewCartRepository returns a Postgres-backed implementation.
func NewCartRepository(db DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	const query = `SELECT user_id, items, updated_at FROM carts WHERE user_id=$1`
	var cart domain.Cart
	err := r.db.QueryRow(ctx, query, userID).Scan(&cart.UserID, &cart.Items, &cart.UpdatedAt)
	if err != nil {
		if translate(err) == ErrNotFound {
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	const query = `
        INSERT INTO carts (user_id, items) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
        RETURNING updated_at`
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return r.db.QueryRow(ctx, query, cart.UserID, cart.Items).Scan(&cart.UpdatedAt)
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID)
	return err
}
