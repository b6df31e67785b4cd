package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
)

// OrderStore is an in-memory repository.OrderRepository.
type OrderStore struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	seq      int64
	position map[string]int64
}

// NewOrderStore returns an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]domain.Order), position: make(map[string]int64)}
}

var _ repository.OrderRepository = (*OrderStore)(nil)

func (s *OrderStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.seq++
	s.position[order.ID] = s.seq
	s.orders[order.ID] = copyOrder(*order)
	return nil
}

func (s *OrderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyOrder(order)
	return &out, nil
}

func (s *OrderStore) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if !matches(order, filter) {
			continue
		}
		result = append(result, copyOrder(order))
	}
	seq := make(map[string]int64, len(result))
	for _, o := range result {
		seq[o.ID] = s.position[o.ID]
	}
	s.mu.RUnlock()

	// newest first
	sort.Slice(result, func(i, j int) bool { return seq[result[i].ID] > seq[result[j].ID] })
	return page(result, filter.Limit, filter.Offset), nil
}

func (s *OrderStore) SetStatusUnlessCompleted(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if order.Status == domain.OrderStatusCompleted {
		return nil, false, nil
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	s.orders[id] = order
	out := copyOrder(order)
	return &out, true, nil
}

func (s *OrderStore) DeleteUnlessCompleted(_ context.Context, id string) (*domain.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if order.Status == domain.OrderStatusCompleted {
		return nil, false, nil
	}
	delete(s.orders, id)
	delete(s.position, id)
	out := copyOrder(order)
	return &out, true, nil
}

func matches(order domain.Order, filter repository.OrderFilter) bool {
	if filter.ID != nil && order.ID != *filter.ID {
		return false
	}
	if filter.UserID != nil && order.UserID != *filter.UserID {
		return false
	}
	if filter.SellerID != nil && len(order.LinesSoldBy(*filter.SellerID)) == 0 {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if order.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func copyOrder(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine{}, o.Lines...)
	return o
}
