package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// ProductService manages the catalog.
type ProductService struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

// ProductInput describes a new catalog entry.
type ProductInput struct {
	Name        string
	Price       int64
	Description string
	Image       string
	Category    string
	Quantity    int64
}

// ProductUpdate lists the mutable descriptive fields. Stock moves only through AdjustStock.
type ProductUpdate struct {
	Name        *string
	Price       *int64
	Description *string
	Image       *string
	Category    *string
}

// NewProductService constructs the service.
func NewProductService(products repository.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{products: products, logger: logger}
}

// Create adds a product owned by caller.
func (s *ProductService) Create(ctx context.Context, caller *domain.User, in ProductInput) (*domain.Product, error) {
	if !auth.Authorize(caller.Role, auth.Staff...) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	product := &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		Category:    strings.TrimSpace(in.Category),
		Quantity:    in.Quantity,
		OwnerID:     caller.ID,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if in.Quantity < 0 {
		return nil, apperrors.NewValidationError("quantity must not be negative", nil)
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

// List pages through the catalog.
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "product")
	}
	return products, nil
}

// Update changes descriptive fields of a product caller may manage.
func (s *ProductService) Update(ctx context.Context, caller *domain.User, id string, in ProductUpdate) (*domain.Product, error) {
	product, err := s.manageable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		product.Image = strings.TrimSpace(*in.Image)
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

// AdjustStock adds delta to the stored quantity in one guarded write.
func (s *ProductService) AdjustStock(ctx context.Context, caller *domain.User, id string, delta int64) (*domain.Product, error) {
	if delta == 0 {
		return nil, apperrors.NewValidationError("delta must not be zero", nil)
	}
	if _, err := s.manageable(ctx, caller, id); err != nil {
		return nil, err
	}
	product, err := s.products.AdjustQuantity(ctx, id, delta)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// the product existed a moment ago, so the guard refused the write
			return nil, apperrors.NewValidationError("insufficient stock for adjustment", map[string]any{"delta": delta})
		}
		return nil, storeError(err, "product")
	}
	s.logger.Info("stock adjusted",
		zap.String("product_id", id),
		zap.Int64("delta", delta),
		zap.Int64("quantity", product.Quantity))
	return product, nil
}

// Delete removes a product caller may manage. Existing orders keep their line snapshots.
func (s *ProductService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if _, err := s.manageable(ctx, caller, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return storeError(err, "product")
	}
	return nil
}

// manageable loads the product and checks that caller owns it or administers the shop.
func (s *ProductService) manageable(ctx context.Context, caller *domain.User, id string) (*domain.Product, error) {
	if !auth.Authorize(caller.Role, auth.Staff...) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "product")
	}
	if product.OwnerID != caller.ID && !auth.Authorize(caller.Role, auth.Administrators...) {
		return nil, apperrors.NewForbidden("not the product owner")
	}
	return product, nil
}

func validateProduct(p *domain.Product) error {
	if p.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	if p.Price < 0 {
		return apperrors.NewValidationError("price must not be negative", nil)
	}
	if p.Price > domain.MaxPrice {
		return apperrors.NewValidationError("price too large", map[string]any{"max_price": domain.MaxPrice})
	}
	return nil
}
