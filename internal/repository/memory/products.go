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

// ProductStore is an in-memory repository.ProductRepository.
// ConditionalDecrement checks and writes under one lock, matching the
// single-statement guarded UPDATE of the Postgres store.
type ProductStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

// NewProductStore returns an empty store.
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]domain.Product)}
}

var _ repository.ProductRepository = (*ProductStore)(nil)

func (s *ProductStore) Create(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.Name == product.Name {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = *product
	return nil
}

func (s *ProductStore) Update(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.products {
		if id != product.ID && existing.Name == product.Name {
			return repository.ErrDuplicate
		}
	}
	stored.Name = product.Name
	stored.Price = product.Price
	stored.Description = product.Description
	stored.Image = product.Image
	stored.Category = product.Category
	stored.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = stored
	product.Quantity = stored.Quantity
	product.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *ProductStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &product, nil
}

func (s *ProductStore) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(ids))
	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := s.products[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

func (s *ProductStore) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	s.mu.Lock()
	result := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		result = append(result, product)
	}
	s.mu.Unlock()

	less := func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch filter.SortBy {
	case "name":
		less = func(a, b domain.Product) bool { return a.Name < b.Name }
	case "price":
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case "quantity":
		less = func(a, b domain.Product) bool { return a.Quantity < b.Quantity }
	}
	sort.SliceStable(result, func(i, j int) bool {
		if filter.SortDesc {
			return less(result[j], result[i])
		}
		return less(result[i], result[j])
	})
	return page(result, filter.Limit, filter.Offset), nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *ProductStore) ConditionalDecrement(_ context.Context, id string, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok || product.Quantity < amount {
		return false, nil
	}
	product.Quantity -= amount
	product.UpdatedAt = time.Now().UTC()
	s.products[id] = product
	return true, nil
}

func (s *ProductStore) AdjustQuantity(_ context.Context, id string, delta int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok || product.Quantity+delta < 0 {
		return nil, repository.ErrNotFound
	}
	product.Quantity += delta
	product.UpdatedAt = time.Now().UTC()
	s.products[id] = product
	return &product, nil
}
