package events

import (
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventOrderCreated       EventType = "order_created"
	EventOrderStatusChanged EventType = "order_status_changed"
	EventOrderDeleted       EventType = "order_deleted"
)

// AllTypes lists every event type, for subscribers that relay everything.
var AllTypes = []EventType{EventUserRegistered, EventOrderCreated, EventOrderStatusChanged, EventOrderDeleted}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	UserID     string             `json:"user_id"`
	Lines      []domain.OrderLine `json:"lines"`
	TotalPrice int64              `json:"total_price"`
	Rejected   int                `json:"rejected_lines"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	UserID    string             `json:"user_id"`
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
}

// OrderDeletedPayload payload. Restocked is false when the stock stayed with the buyer.
type OrderDeletedPayload struct {
	UserID    string             `json:"user_id"`
	Status    domain.OrderStatus `json:"status"`
	Restocked bool               `json:"restocked"`
}
