package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/shop-service/internal/api/http/handlers"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/observability"
	"github.com/spec-kit/shop-service/internal/persistence"
	"github.com/spec-kit/shop-service/internal/repository/memory"
	"github.com/spec-kit/shop-service/internal/service"
)

const testPassword = "s3cret-pass"

type testServer struct {
	app     *fiber.App
	users   *memory.UserStore
	metrics *observability.Metrics
	authCfg config.AuthConfig
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	authCfg := config.AuthConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost}

	users := memory.NewUserStore()
	products := memory.NewProductStore()
	orders := memory.NewOrderStore()
	carts := memory.NewCartStore()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	tokens := auth.NewTokenManager(authCfg.JWTSecret, users, auth.TokenOptions{})
	authService := service.NewAuthService(authCfg, service.AuthDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	inventory := service.NewInventoryService(products, metrics, logger)
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:  orders,
		Inventory:  inventory,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("shop-service", "test", &persistence.Postgres{}, nil),
		Metrics:  handlers.NewMetricsHandler(metrics),
		Users:    handlers.NewUsersHandler(authService, service.NewUserService(authCfg, users, logger)),
		Products: handlers.NewProductsHandler(service.NewProductService(products, logger)),
		Cart: handlers.NewCartHandler(service.NewCartService(service.CartDependencies{
			CartRepo:    carts,
			ProductRepo: products,
			Orders:      orderService,
			Logger:      logger,
		})),
		Orders:         handlers.NewOrdersHandler(orderService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, users: users, metrics: metrics, authCfg: authCfg}
}

// account seeds an active user and logs in through the API.
func (s *testServer) account(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, s.authCfg.BcryptCost)
	require.NoError(t, err)
	require.NoError(t, s.users.Create(context.Background(), &domain.User{
		Name: email, Email: email, PasswordHash: hash, Role: role, Active: true,
	}))

	status, body := s.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var resp struct {
		Data struct {
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Data.Auth.Token)
	return resp.Data.Auth.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func createProduct(t *testing.T, s *testServer, token, name string, price, quantity int64) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{
		"name": name, "price": price, "quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var product struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &product))
	return product.ID
}

func TestSignupCreatesInactiveAccount(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"name": "Ann", "email": "Ann@Example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var user struct {
		Email  string `json:"email"`
		Role   string `json:"role"`
		Active bool   `json:"active"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &user))
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "buyer", user.Role)
	assert.False(t, user.Active)
	assert.NotContains(t, string(body), "password")

	status, body = s.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", decode(t, body).Error.Code)

	status, body = s.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "ann@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ACCOUNT_INACTIVE", decode(t, body).Error.Code)

	status, body = s.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "ann@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", decode(t, body).Error.Code)
}

func TestPartialOrderOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	seller := s.account(t, "seller@example.com", domain.RoleSeller)
	buyer := s.account(t, "buyer@example.com", domain.RoleBuyer)

	p1 := createProduct(t, s, seller, "Lamp", 1000, 5)
	p2 := createProduct(t, s, seller, "Chair", 2500, 0)

	status, body := s.do(t, http.MethodPost, "/api/v1/orders", buyer, map[string]any{
		"items": []map[string]any{
			{"product_id": p1, "quantity": 2},
			{"product_id": p2, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		Order struct {
			ID         string `json:"id"`
			TotalPrice int64  `json:"total_price"`
			Status     string `json:"status"`
			Lines      []struct {
				ProductID string `json:"product_id"`
				Quantity  int64  `json:"quantity"`
			} `json:"lines"`
		} `json:"order"`
		Message  string `json:"message"`
		Rejected []struct {
			ProductID string `json:"product_id"`
			Reason    string `json:"reason"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &created))
	assert.Equal(t, int64(2000), created.Order.TotalPrice)
	assert.Equal(t, "pending", created.Order.Status)
	require.Len(t, created.Order.Lines, 1)
	assert.Equal(t, p1, created.Order.Lines[0].ProductID)
	require.Len(t, created.Rejected, 1)
	assert.Equal(t, p2, created.Rejected[0].ProductID)
	assert.Equal(t, "insufficient_stock", created.Rejected[0].Reason)
	assert.Contains(t, created.Message, "Chair")

	status, body = s.do(t, http.MethodGet, "/api/v1/products/"+p1, "", nil)
	require.Equal(t, http.StatusOK, status)
	var product struct {
		Quantity int64 `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &product))
	assert.Equal(t, int64(3), product.Quantity)

	status, body = s.do(t, http.MethodPost, "/api/v1/orders", buyer, map[string]any{
		"items": []map[string]any{{"product_id": p2, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NO_FULFILLABLE_LINES", decode(t, body).Error.Code)

	status, body = s.do(t, http.MethodPost, "/api/v1/orders", buyer, map[string]any{
		"items": []map[string]any{{"product_id": "missing", "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_PRODUCT", decode(t, body).Error.Code)
}

func TestOrderStatusLifecycleOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	seller := s.account(t, "seller@example.com", domain.RoleSeller)
	buyer := s.account(t, "buyer@example.com", domain.RoleBuyer)
	p1 := createProduct(t, s, seller, "Lamp", 1000, 5)

	status, body := s.do(t, http.MethodPost, "/api/v1/orders", buyer, map[string]any{
		"items": []map[string]any{{"product_id": p1, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &created))
	path := "/api/v1/orders/" + created.Order.ID + "/status"

	status, _ = s.do(t, http.MethodPatch, path, buyer, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodPatch, path, seller, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, body).Error.Code)

	status, body = s.do(t, http.MethodPatch, path, seller, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.do(t, http.MethodPatch, path, seller, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_FINALIZED", decode(t, body).Error.Code)

	status, body = s.do(t, http.MethodGet, "/api/v1/orders/me?status=completed", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &mine))
	assert.Len(t, mine, 1)

	status, _ = s.do(t, http.MethodGet, "/api/v1/orders", buyer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodGet, "/api/v1/orders?status=bogus", seller, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, body).Error.Code)
}

func TestCartCheckoutOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	seller := s.account(t, "seller@example.com", domain.RoleSeller)
	buyer := s.account(t, "buyer@example.com", domain.RoleBuyer)
	p1 := createProduct(t, s, seller, "Lamp", 1000, 5)

	for i := 0; i < 2; i++ {
		status, body := s.do(t, http.MethodPost, "/api/v1/cart/increase?product_id="+p1, buyer, nil)
		require.Equal(t, http.StatusOK, status, string(body))
	}
	status, body := s.do(t, http.MethodPost, "/api/v1/cart/explode?product_id="+p1, buyer, nil)
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	status, body = s.do(t, http.MethodPost, "/api/v1/cart/checkout", buyer, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Contains(t, string(body), `"total_price":2000`)

	status, body = s.do(t, http.MethodGet, "/api/v1/cart", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var cart struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &cart))
	assert.Empty(t, cart.Items)

	status, _ = s.do(t, http.MethodPost, "/api/v1/cart/checkout", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSessionsAndAdministration(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.account(t, "admin@example.com", domain.RoleAdmin)
	buyer := s.account(t, "buyer@example.com", domain.RoleBuyer)

	status, _ := s.do(t, http.MethodGet, "/api/v1/users", buyer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodGet, "/api/v1/users?role=buyer", admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var listed []struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "buyer@example.com", listed[0].Email)

	status, body = s.do(t, http.MethodPost, "/api/v1/users/"+listed[0].ID+"/deactivate", admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/users/me", buyer, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", decode(t, body).Error.Code)

	status, _ = s.do(t, http.MethodPost, "/api/v1/users/logout", admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodGet, "/api/v1/users/me", admin, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProbesMetricsAndUnknownRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"postgres":"memory"`)

	status, body = s.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode(t, body).Error.Code)

	status, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	var snap observability.Snapshot
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &snap))
	assert.NotEmpty(t, snap.Requests)
	assert.Equal(t, int64(1), snap.Errors["/api/v1/nowhere|GET|NOT_FOUND"])
}

func TestDeleteOrderOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	seller := s.account(t, "seller@example.com", domain.RoleSeller)
	buyer := s.account(t, "buyer@example.com", domain.RoleBuyer)
	p1 := createProduct(t, s, seller, "Lamp", 1000, 5)

	place := func() string {
		status, body := s.do(t, http.MethodPost, "/api/v1/orders", buyer, map[string]any{
			"items": []map[string]any{{"product_id": p1, "quantity": 2}},
		})
		require.Equal(t, http.StatusCreated, status, string(body))
		var created struct {
			Order struct {
				ID string `json:"id"`
			} `json:"order"`
		}
		require.NoError(t, json.Unmarshal(decode(t, body).Data, &created))
		return created.Order.ID
	}

	open := place()
	status, _ := s.do(t, http.MethodDelete, "/api/v1/orders/"+open, seller, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodDelete, "/api/v1/orders/"+open, buyer, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"deleted":true`)

	status, body = s.do(t, http.MethodGet, "/api/v1/products/"+p1, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"quantity":5`)

	done := place()
	status, _ = s.do(t, http.MethodPatch, "/api/v1/orders/"+done+"/status", seller, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, status)
	status, body = s.do(t, http.MethodDelete, "/api/v1/orders/"+done, buyer, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_FINALIZED", decode(t, body).Error.Code)
}
