package domain

import "time"

// CartAction enumerates the mutations a buyer can apply to a cart.
type CartAction string

const (
	CartActionIncrease CartAction = "increase"
	CartActionReduce   CartAction = "reduce"
	CartActionRemove   CartAction = "remove"
)

// CartItem is one product in a cart.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// Cart holds a user's pending selections.
type Cart struct {
	UserID    string
	Items     []CartItem
	UpdatedAt time.Time
}

// Find returns the index of productID in the cart, or -1.
func (c *Cart) Find(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// ParseCartAction maps a path segment onto the closed action set.
func ParseCartAction(s string) (CartAction, bool) {
	switch CartAction(s) {
	case CartActionIncrease:
		return CartActionIncrease, true
	case CartActionReduce:
		return CartActionReduce, true
	case CartActionRemove:
		return CartActionRemove, true
	default:
		return "", false
	}
}
