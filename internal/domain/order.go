package domain

import (
	"math"
	"time"
)

// OrderStatus enumerates lifecycle states for orders.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus maps a client supplied value onto the closed status set.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusCompleted:
		return OrderStatusCompleted, true
	case OrderStatusCancelled:
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// OrderLine is a fulfilled line, priced when its stock was reserved.
type OrderLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SellerID    string `json:"seller_id"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// Subtotal returns Quantity × UnitPrice.
func (l OrderLine) Subtotal() int64 {
	return l.Quantity * l.UnitPrice
}

// AddSubtotal returns total plus line's subtotal, or false if either step overflows int64.
// Quantity and UnitPrice are assumed non-negative.
func AddSubtotal(total int64, line OrderLine) (int64, bool) {
	if line.Quantity != 0 && line.UnitPrice > math.MaxInt64/line.Quantity {
		return 0, false
	}
	sub := line.Quantity * line.UnitPrice
	if total > math.MaxInt64-sub {
		return 0, false
	}
	return total + sub, true
}

// Order is the aggregate persisted once stock has been reserved.
type Order struct {
	ID         string
	UserID     string
	Lines      []OrderLine
	TotalPrice int64
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LinesSoldBy returns the lines whose product belongs to sellerID.
func (o *Order) LinesSoldBy(sellerID string) []OrderLine {
	lines := make([]OrderLine, 0, len(o.Lines))
	for _, line := range o.Lines {
		if line.SellerID == sellerID {
			lines = append(lines, line)
		}
	}
	return lines
}

// LineTotal sums the subtotals of lines.
func LineTotal(lines []OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}
