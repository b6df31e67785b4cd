package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// CartService manages per-user carts and turns them into orders.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	orders   *OrderService
	logger   *zap.Logger
}

// CartDependencies bundles collaborators for the cart service.
type CartDependencies struct {
	CartRepo    repository.CartRepository
	ProductRepo repository.ProductRepository
	Orders      *OrderService
	Logger      *zap.Logger
}

// NewCartService constructs the service.
func NewCartService(deps CartDependencies) *CartService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{carts: deps.CartRepo, products: deps.ProductRepo, orders: deps.Orders, logger: logger}
}

// Get returns the caller's cart.
func (s *CartService) Get(ctx context.Context, caller *domain.User) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "cart")
	}
	return cart, nil
}

// Apply runs a cart action for productID. Stock is not checked until checkout.
func (s *CartService) Apply(ctx context.Context, caller *domain.User, action, productID string) (*domain.Cart, error) {
	act, ok := domain.ParseCartAction(action)
	if !ok {
		return nil, apperrors.NewValidationError("invalid cart action", map[string]any{"action": action})
	}
	if productID == "" {
		return nil, apperrors.NewValidationError("product_id required", nil)
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, storeError(err, "product")
	}

	cart, err := s.carts.Get(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "cart")
	}
	idx := cart.Find(productID)

	switch act {
	case domain.CartActionIncrease:
		if idx < 0 {
			cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Quantity: 1})
		} else {
			cart.Items[idx].Quantity++
		}
	case domain.CartActionReduce:
		if idx < 0 {
			return nil, apperrors.NewNotFound("cart item", map[string]any{"product_id": productID})
		}
		if cart.Items[idx].Quantity > 1 {
			cart.Items[idx].Quantity--
		} else {
			cart.Items = removeItem(cart.Items, idx)
		}
	case domain.CartActionRemove:
		if idx < 0 {
			return nil, apperrors.NewNotFound("cart item", map[string]any{"product_id": productID})
		}
		cart.Items = removeItem(cart.Items, idx)
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, storeError(err, "cart")
	}
	return cart, nil
}

// Checkout places an order for the cart contents and empties the cart once the order exists.
func (s *CartService) Checkout(ctx context.Context, caller *domain.User) (*OrderResult, error) {
	cart, err := s.carts.Get(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "cart")
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.NewValidationError("cart is empty", nil)
	}

	lines := make([]ReservationLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, ReservationLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	result, err := s.orders.CreateOrder(ctx, caller, lines)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, caller.ID); err != nil {
		s.logger.Warn("cart not cleared after checkout",
			zap.String("user_id", caller.ID),
			zap.String("order_id", result.Order.ID),
			zap.Error(err))
	}
	return result, nil
}

func removeItem(items []domain.CartItem, idx int) []domain.CartItem {
	return append(items[:idx], items[idx+1:]...)
}
