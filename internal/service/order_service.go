package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// OrderService owns order creation, visibility and status transitions.
type OrderService struct {
	orders    repository.OrderRepository
	inventory *InventoryService
	logger    *zap.Logger
	publisher
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	Inventory  *InventoryService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// OrderResult is a created order plus the lines that could not be fulfilled.
type OrderResult struct {
	Order    *domain.Order
	Message  string
	Rejected []RejectedLine
}

// OrderListFilter describes listing filters. ID and UserID are honored for owner and admin only.
type OrderListFilter struct {
	ID       *string
	UserID   *string
	Statuses []domain.OrderStatus
	Limit    int
	Offset   int
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:    deps.OrderRepo,
		inventory: deps.Inventory,
		logger:    logger,
		publisher: publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// CreateOrder reserves stock for lines and persists an order holding only the fulfilled ones.
// UnknownProduct and NoFulfillableLines fail the request without creating anything.
func (s *OrderService) CreateOrder(ctx context.Context, caller *domain.User, lines []ReservationLine) (*OrderResult, error) {
	reservation, err := s.inventory.Reserve(ctx, lines)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:     caller.ID,
		Lines:      reservation.Lines,
		TotalPrice: reservation.Subtotal,
		Status:     domain.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("order persist failed; releasing reserved stock",
			zap.String("user_id", caller.ID), zap.Error(err))
		if relErr := s.inventory.Release(ctx, reservation.Lines); relErr != nil {
			s.logger.Error("stock release incomplete", zap.Error(relErr))
		}
		return nil, storeError(err, "order")
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventOrderCreated,
		ActorID:   caller.ID,
		SubjectID: order.ID,
		Payload: events.OrderCreatedPayload{
			UserID:     order.UserID,
			Lines:      order.Lines,
			TotalPrice: order.TotalPrice,
			Rejected:   len(reservation.Rejected),
		},
	})

	return &OrderResult{Order: order, Message: reservation.Notice(), Rejected: reservation.Rejected}, nil
}

// GetOrder returns the order as caller is allowed to see it.
func (s *OrderService) GetOrder(ctx context.Context, caller *domain.User, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	visible, ok := visibleTo(caller, order)
	if !ok {
		return nil, apperrors.NewForbidden("order not visible")
	}
	return visible, nil
}

// ListOrders lists orders for staff. Sellers only get orders containing their products,
// reduced to those lines.
func (s *OrderService) ListOrders(ctx context.Context, caller *domain.User, filter OrderListFilter) ([]domain.Order, error) {
	repoFilter := repository.OrderFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	switch caller.Role {
	case domain.RoleOwner, domain.RoleAdmin:
		repoFilter.ID = filter.ID
		repoFilter.UserID = filter.UserID
	case domain.RoleSeller:
		repoFilter.SellerID = &caller.ID
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}

	orders, err := s.orders.List(ctx, repoFilter)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if caller.Role != domain.RoleSeller {
		return orders, nil
	}

	result := make([]domain.Order, 0, len(orders))
	for i := range orders {
		if projected, ok := sellerView(&orders[i], caller.ID); ok {
			result = append(result, *projected)
		}
	}
	return result, nil
}

// ListMyOrders lists the orders the caller placed.
func (s *OrderService) ListMyOrders(ctx context.Context, caller *domain.User, filter OrderListFilter) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, repository.OrderFilter{
		UserID:   &caller.ID,
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, storeError(err, "order")
	}
	return orders, nil
}

// UpdateStatus sets the order status. Every transition is allowed except out of completed.
func (s *OrderService) UpdateStatus(ctx context.Context, caller *domain.User, id, status string) (*domain.Order, error) {
	if !auth.Authorize(caller.Role, auth.Staff...) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if current.Status == domain.OrderStatusCompleted {
		return nil, apperrors.NewAlreadyFinalized(id)
	}

	updated, changed, err := s.orders.SetStatusUnlessCompleted(ctx, id, next)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if !changed {
		// completed concurrently
		return nil, apperrors.NewAlreadyFinalized(id)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventOrderStatusChanged,
		ActorID:   caller.ID,
		SubjectID: updated.ID,
		Payload: events.OrderStatusChangedPayload{
			UserID:    updated.UserID,
			OldStatus: current.Status,
			NewStatus: updated.Status,
		},
	})
	return updated, nil
}

// DeleteOrder removes an order on behalf of its creator or an administrator. Completed orders
// are kept. The stock an open order still holds is returned to the catalog.
func (s *OrderService) DeleteOrder(ctx context.Context, caller *domain.User, id string) (*domain.Order, error) {
	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if current.UserID != caller.ID && !auth.Authorize(caller.Role, auth.Administrators...) {
		return nil, apperrors.NewForbidden("only the creator or an administrator may delete an order")
	}
	if current.Status == domain.OrderStatusCompleted {
		return nil, apperrors.NewAlreadyFinalized(id)
	}

	deleted, ok, err := s.orders.DeleteUnlessCompleted(ctx, id)
	if err != nil {
		return nil, storeError(err, "order")
	}
	if !ok {
		return nil, apperrors.NewAlreadyFinalized(id)
	}

	restocked := true
	if err := s.inventory.Release(ctx, deleted.Lines); err != nil {
		restocked = false
		s.logger.Error("stock not returned for deleted order",
			zap.String("order_id", deleted.ID),
			zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventOrderDeleted,
		ActorID:   caller.ID,
		SubjectID: deleted.ID,
		Payload: events.OrderDeletedPayload{
			UserID:    deleted.UserID,
			Status:    deleted.Status,
			Restocked: restocked,
		},
	})
	return deleted, nil
}

func visibleTo(caller *domain.User, order *domain.Order) (*domain.Order, bool) {
	switch {
	case auth.Authorize(caller.Role, auth.Administrators...):
		return order, true
	case order.UserID == caller.ID:
		return order, true
	case caller.Role == domain.RoleSeller:
		return sellerView(order, caller.ID)
	default:
		return nil, false
	}
}

// sellerView projects order onto the seller's lines. The total is recomputed over those lines.
func sellerView(order *domain.Order, sellerID string) (*domain.Order, bool) {
	lines := order.LinesSoldBy(sellerID)
	if len(lines) == 0 {
		return nil, false
	}
	projected := *order
	projected.Lines = lines
	projected.TotalPrice = domain.LineTotal(lines)
	return &projected, true
}
