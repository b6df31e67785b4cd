package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
)

// CartStore is an in-memory repository.CartRepository.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

// NewCartStore returns an empty store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]domain.Cart)}
}

var _ repository.CartRepository = (*CartStore)(nil)

func (s *CartStore) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	cart.Items = append([]domain.CartItem{}, cart.Items...)
	return &cart, nil
}

func (s *CartStore) Save(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart.UpdatedAt = time.Now().UTC()
	stored := *cart
	stored.Items = append([]domain.CartItem{}, cart.Items...)
	s.carts[cart.UserID] = stored
	return nil
}

func (s *CartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
