package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/service"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// OrdersHandler exposes order placement and management.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Create POST /api/v1/orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	lines := make([]service.ReservationLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.ReservationLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	result, err := h.orders.CreateOrder(c.UserContext(), user, lines)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": orderCreatedResponse(result)})
}

// List GET /api/v1/orders.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListOrders(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponses(orders)})
}

// ListMine GET /api/v1/orders/me.
func (h *OrdersHandler) ListMine(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListMyOrders(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponses(orders)})
}

// Get GET /api/v1/orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	order, err := h.orders.GetOrder(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// UpdateStatus PATCH /api/v1/orders/:id/status.
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	order, err := h.orders.UpdateStatus(c.UserContext(), user, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// Delete DELETE /api/v1/orders/:id.
func (h *OrdersHandler) Delete(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	order, err := h.orders.DeleteOrder(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": order.ID, "deleted": true}})
}

func parseOrderFilter(c *fiber.Ctx) (service.OrderListFilter, error) {
	var filter service.OrderListFilter
	if id := c.Query("id"); id != "" {
		filter.ID = &id
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := domain.ParseOrderStatus(strings.TrimSpace(part))
			if !ok {
				return filter, apperrors.NewValidationError("invalid status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	filter.Limit, filter.Offset = parsePage(c)
	return filter, nil
}

func orderResponses(orders []domain.Order) []dto.OrderResponse {
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponse(&orders[i]))
	}
	return items
}

func orderResponse(order *domain.Order) dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, dto.OrderLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			SellerID:    line.SellerID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal(),
		})
	}
	return dto.OrderResponse{
		ID:         order.ID,
		UserID:     order.UserID,
		Lines:      lines,
		TotalPrice: order.TotalPrice,
		Status:     string(order.Status),
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}

func orderCreatedResponse(result *service.OrderResult) dto.OrderCreatedResponse {
	resp := dto.OrderCreatedResponse{Order: orderResponse(result.Order), Message: result.Message}
	for _, line := range result.Rejected {
		resp.Rejected = append(resp.Rejected, dto.RejectedLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Requested:   line.Requested,
			Reason:      string(line.Reason),
		})
	}
	return resp
}
