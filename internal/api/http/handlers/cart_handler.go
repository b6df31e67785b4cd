package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/service"
)

// CartHandler exposes the caller's cart.
type CartHandler struct {
	carts *service.CartService
}

// NewCartHandler constructs handler.
func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get GET /api/v1/cart.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	cart, err := h.carts.Get(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cartResponse(cart)})
}

// Apply POST /api/v1/cart/:action?product_id=.
func (h *CartHandler) Apply(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	cart, err := h.carts.Apply(c.UserContext(), user, c.Params("action"), c.Query("product_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cartResponse(cart)})
}

// Checkout POST /api/v1/cart/checkout.
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	result, err := h.carts.Checkout(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": orderCreatedResponse(result)})
}

func cartResponse(cart *domain.Cart) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, dto.CartItemResponse{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return dto.CartResponse{UserID: cart.UserID, Items: items, UpdatedAt: cart.UpdatedAt}
}
