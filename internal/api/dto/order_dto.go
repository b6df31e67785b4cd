package dto

import "time"

// OrderLineRequest is one requested product.
type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	Items []OrderLineRequest `json:"items"`
}

// StatusUpdateRequest payload.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// OrderLineResponse is a fulfilled line priced at reservation time.
type OrderLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SellerID    string `json:"seller_id"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// OrderResponse representation.
type OrderResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	Lines      []OrderLineResponse `json:"lines"`
	TotalPrice int64               `json:"total_price"`
	Status     string              `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// RejectedLineResponse describes a line left out of the order.
type RejectedLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int64  `json:"requested"`
	Reason      string `json:"reason"`
}

// OrderCreatedResponse wraps a new order with the diagnostic for dropped lines.
type OrderCreatedResponse struct {
	Order    OrderResponse          `json:"order"`
	Message  string                 `json:"message,omitempty"`
	Rejected []RejectedLineResponse `json:"rejected,omitempty"`
}
