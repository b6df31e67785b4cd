package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/observability"
	"github.com/spec-kit/shop-service/internal/repository/memory"
)

type fixture struct {
	users      *memory.UserStore
	products   *memory.ProductStore
	orders     *memory.OrderStore
	carts      *memory.CartStore
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	recorder   *eventRecorder
	metrics    *observability.Metrics
	inventory  *InventoryService
	orderSvc   *OrderService
	authCfg    config.AuthConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:      memory.NewUserStore(),
		products:   memory.NewProductStore(),
		orders:     memory.NewOrderStore(),
		carts:      memory.NewCartStore(),
		dispatcher: events.NewInMemoryDispatcher(),
		recorder:   &eventRecorder{},
		metrics:    observability.NewMetrics(),
		authCfg:    config.AuthConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost},
	}
	for _, eventType := range events.AllTypes {
		f.dispatcher.Subscribe(eventType, f.recorder.handle)
	}
	f.tokens = auth.NewTokenManager(f.authCfg.JWTSecret, f.users, auth.TokenOptions{})
	f.inventory = NewInventoryService(f.products, f.metrics, zap.NewNop())
	f.orderSvc = NewOrderService(OrderDependencies{
		OrderRepo:  f.orders,
		Inventory:  f.inventory,
		Dispatcher: f.dispatcher,
	})
	return f
}

func (f *fixture) user(t *testing.T, email string, role domain.Role, active bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("s3cret-pass", f.authCfg.BcryptCost)
	require.NoError(t, err)
	user := &domain.User{Name: email, Email: email, PasswordHash: hash, Role: role, Active: active}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) product(t *testing.T, name string, price, quantity int64, owner *domain.User) *domain.Product {
	t.Helper()
	product := &domain.Product{Name: name, Price: price, Quantity: quantity, OwnerID: owner.ID}
	require.NoError(t, f.products.Create(context.Background(), product))
	return product
}

func (f *fixture) quantity(t *testing.T, id string) int64 {
	t.Helper()
	product, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return product.Quantity
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
