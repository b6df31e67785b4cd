package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/notify"
	"github.com/spec-kit/shop-service/internal/repository"
)

// Outbox accepts mail for later delivery.
type Outbox interface {
	Enqueue(ctx context.Context, msg notify.Message) error
}

// NotificationService turns domain events into customer email.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	outbox     Outbox
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, outbox Outbox, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		outbox:     outbox,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventOrderCreated, n.handleOrderCreated)
	n.dispatcher.Subscribe(events.EventOrderStatusChanged, n.handleOrderStatusChanged)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("UserRegistered", zap.String("user_id", event.SubjectID))
	return n.send(ctx, notify.Message{
		To:      payload.Email,
		Subject: "Thanks for joining in!",
		Body:    fmt.Sprintf("Welcome to the app, %s. Please contact your superior to activate your account.", payload.Name),
	})
}

func (n *NotificationService) handleOrderCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("OrderCreated", zap.String("order_id", event.SubjectID), zap.Int("rejected_lines", payload.Rejected))

	user, err := n.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("order %s recipient: %w", event.SubjectID, err)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\nwe received your order %s:\n\n", user.Name, event.SubjectID)
	for _, line := range payload.Lines {
		fmt.Fprintf(&body, "  %d x %s  %s\n", line.Quantity, line.ProductName, formatPrice(line.Subtotal()))
	}
	fmt.Fprintf(&body, "\nTotal: %s\n", formatPrice(payload.TotalPrice))
	if payload.Rejected > 0 {
		fmt.Fprintf(&body, "\n%d item(s) were not available and are not part of this order.\n", payload.Rejected)
	}
	return n.send(ctx, notify.Message{To: user.Email, Subject: "Your order was received", Body: body.String()})
}

func (n *NotificationService) handleOrderStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("OrderStatusChanged",
		zap.String("order_id", event.SubjectID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))

	user, err := n.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("order %s recipient: %w", event.SubjectID, err)
	}
	return n.send(ctx, notify.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Your order is %s", payload.NewStatus),
		Body:    fmt.Sprintf("Hi %s,\n\nyour order %s changed from %s to %s.\n", user.Name, event.SubjectID, payload.OldStatus, payload.NewStatus),
	})
}

func (n *NotificationService) send(ctx context.Context, msg notify.Message) error {
	if n.outbox == nil || strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return nil
	}
	return n.outbox.Enqueue(ctx, msg)
}

// formatPrice renders minor units with two decimals.
func formatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
