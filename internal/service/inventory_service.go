package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/observability"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// RejectReason explains why a requested line was not fulfilled.
type RejectReason string

const (
	RejectInsufficientStock RejectReason = "insufficient_stock"
	// RejectLostRace marks a line that looked available but lost the conditional
	// decrement to a concurrent reservation.
	RejectLostRace RejectReason = "lost_race"
)

// ReservationLine is one requested (product, quantity) pair.
type ReservationLine struct {
	ProductID string
	Quantity  int64
}

// RejectedLine is a requested line excluded from the reservation. Available is the snapshot
// stock and is kept out of client payloads.
type RejectedLine struct {
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	Requested   int64        `json:"requested"`
	Available   int64        `json:"-"`
	Reason      RejectReason `json:"reason"`
}

// Reservation is the outcome of reserving stock for a set of lines.
type Reservation struct {
	Lines    []domain.OrderLine
	Subtotal int64
	Rejected []RejectedLine
}

// Notice describes the rejected lines for the caller, or returns "" when everything was fulfilled.
func (r *Reservation) Notice() string {
	if len(r.Rejected) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Rejected))
	for _, line := range r.Rejected {
		parts = append(parts, fmt.Sprintf("%s (requested %d): not available (%s)", line.ProductName, line.Requested, line.Reason))
	}
	return "some items could not be fulfilled: " + strings.Join(parts, "; ")
}

// InventoryService validates requested quantities against stock and reserves them.
// It never waits for stock and never retries a lost decrement.
type InventoryService struct {
	products repository.ProductRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewInventoryService constructs the service. metrics may be nil.
func NewInventoryService(products repository.ProductRepository, metrics *observability.Metrics, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{products: products, metrics: metrics, logger: logger}
}

// Reserve resolves every product, classifies each line, and atomically decrements stock for the
// valid ones. An unresolvable product fails the whole request; everything else is per line.
func (s *InventoryService) Reserve(ctx context.Context, lines []ReservationLine) (*Reservation, error) {
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("at least one item is required", nil)
	}
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return nil, apperrors.NewValidationError("product_id required", map[string]any{"line": i})
		}
		if line.Quantity < 1 {
			return nil, apperrors.NewValidationError("quantity must be at least 1", map[string]any{"line": i})
		}
		if _, ok := seen[line.ProductID]; !ok {
			seen[line.ProductID] = struct{}{}
			ids = append(ids, line.ProductID)
		}
	}

	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	byID := make(map[string]domain.Product, len(found))
	for _, product := range found {
		byID[product.ID] = product
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewUnknownProduct(unknown)
	}

	// Lines for the same product draw on one snapshot, so the request cannot outbid itself
	// and have the shortfall reported as a lost race.
	result := &Reservation{}
	var candidates []domain.OrderLine
	claimed := make(map[string]int64, len(ids))
	var total int64
	for _, line := range lines {
		product := byID[line.ProductID]
		if line.Quantity > product.Quantity-claimed[product.ID] {
			result.Rejected = append(result.Rejected, rejected(product, line.Quantity, RejectInsufficientStock))
			continue
		}
		candidate := domain.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			SellerID:    product.OwnerID,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		}
		var ok bool
		if total, ok = domain.AddSubtotal(total, candidate); !ok {
			return nil, apperrors.NewValidationError("order total out of range", map[string]any{"product_id": product.ID})
		}
		claimed[product.ID] += line.Quantity
		candidates = append(candidates, candidate)
	}
	if len(candidates) == 0 {
		s.metrics.RecordReservation(0, len(result.Rejected), 0)
		return nil, apperrors.NewNoFulfillableLines(map[string]any{"rejected": result.Rejected})
	}

	lostRaces := 0
	for _, line := range candidates {
		ok, err := s.products.ConditionalDecrement(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.logger.Error("conditional decrement failed",
				zap.String("product_id", line.ProductID), zap.Error(err))
			if relErr := s.Release(ctx, result.Lines); relErr != nil {
				err = errors.Join(err, relErr)
			}
			return nil, apperrors.NewStoreUnavailable(err)
		}
		if !ok {
			lostRaces++
			product := byID[line.ProductID]
			result.Rejected = append(result.Rejected, rejected(product, line.Quantity, RejectLostRace))
			continue
		}
		result.Lines = append(result.Lines, line)
		result.Subtotal += line.Subtotal()
	}
	s.metrics.RecordReservation(len(result.Lines), len(result.Rejected), lostRaces)

	if len(result.Lines) == 0 {
		return nil, apperrors.NewNoFulfillableLines(map[string]any{"rejected": result.Rejected})
	}
	return result, nil
}

// Release returns reserved quantities to stock. It is the compensation for a reservation
// whose order could not be persisted.
func (s *InventoryService) Release(ctx context.Context, lines []domain.OrderLine) error {
	var errs []error
	for _, line := range lines {
		if _, err := s.products.AdjustQuantity(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.Error("stock release failed",
				zap.String("product_id", line.ProductID),
				zap.Int64("quantity", line.Quantity),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("release %s: %w", line.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

func rejected(product domain.Product, requested int64, reason RejectReason) RejectedLine {
	return RejectedLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   requested,
		Available:   product.Quantity,
		Reason:      reason,
	}
}
