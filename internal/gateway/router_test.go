package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-system/internal/cache"
	"inventory-system/internal/database/dbtest"
	"inventory-system/internal/health"
	inventory "inventory-system/internal/services/inventory/handler"
	orders "inventory-system/internal/services/orders/handler"
	users "inventory-system/internal/services/user/handler"
	"inventory-system/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    json.RawMessage   `json:"meta"`
	Errors  map[string]string `json:"errors"`
}

type harness struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	events *cache.MemoryStore
}

func newHarness(t *testing.T, checker *health.Checker) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	store := cache.NewMemoryStore()
	jwt := utils.NewJWTUtil("test-secret", time.Minute, time.Hour)
	log := zap.NewNop()

	if checker == nil {
		checker = health.NewChecker(time.Second)
		checker.Register("database", func(ctx context.Context) error { return nil }, false)
	}

	router, err := NewRouter(Services{
		Users:     users.NewUserHandler(db, jwt, log),
		Inventory: inventory.NewInventoryHandler(db, store, log),
		Orders:    orders.NewOrderHandler(db, store, orders.PermissivePolicy{}, log),
		Health:    checker,
		JWT:       jwt,
	}, Options{})
	require.NoError(t, err)

	return &harness{t: t, db: db, router: router, events: store}
}

func (h *harness) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (h *harness) register(username string) {
	h.t.Helper()
	w, _ := h.do(http.MethodPost, "/api/v1/register", "", map[string]interface{}{
		"username": username,
		"password": "s3cret-pass",
		"email":    username + "@example.com",
		"mobile":   "5550100",
		"age":      30,
		"gender":   "F",
		"address":  "1 Main St",
	})
	require.Equal(h.t, http.StatusCreated, w.Code)
}

func (h *harness) login(username string) utils.TokenPair {
	h.t.Helper()
	w, resp := h.do(http.MethodPost, "/api/v1/token", "", map[string]string{
		"username": username,
		"password": "s3cret-pass",
	})
	require.Equal(h.t, http.StatusOK, w.Code)
	var pair utils.TokenPair
	require.NoError(h.t, json.Unmarshal(resp.Data, &pair))
	return pair
}

func (h *harness) promote(username string) {
	h.t.Helper()
	require.NoError(h.t, h.db.Exec("UPDATE users SET is_staff = ? WHERE username = ?", true, username).Error)
}

func decodeID(t *testing.T, raw json.RawMessage) int64 {
	t.Helper()
	var v struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &v))
	return v.ID
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t, nil)
	h.register("alice")

	w, resp := h.do(http.MethodPost, "/api/v1/register", "", map[string]interface{}{
		"username": "alice", "password": "x", "email": "a@example.com",
		"mobile": "1", "age": 20, "gender": "F", "address": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username taken", resp.Errors["username"])

	w, _ = h.do(http.MethodPost, "/api/v1/token", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	pair := h.login("alice")

	w, resp = h.do(http.MethodGet, "/api/v1/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"alice","email":"alice@example.com","is_staff":false}`, string(resp.Data))

	w, _ = h.do(http.MethodGet, "/api/v1/me", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp = h.do(http.MethodPost, "/api/v1/token/refresh", "", map[string]string{"refresh": pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed struct {
		Access string `json:"access"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &refreshed))

	w, _ = h.do(http.MethodGet, "/api/v1/me", refreshed.Access, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.do(http.MethodGet, "/api/v1/inventory", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInventoryEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	h.register("alice")
	h.register("bob")
	alice := h.login("alice").AccessToken
	bob := h.login("bob").AccessToken

	item := map[string]interface{}{
		"name": "Widget", "sku": "W-1", "quantity": 3, "price": "9.99", "threshold": 5,
	}
	w, resp := h.do(http.MethodPost, "/api/v1/inventory", alice, item)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeID(t, resp.Data)

	w, resp = h.do(http.MethodPost, "/api/v1/inventory", alice, item)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Errors, "sku")

	// Another owner may reuse the SKU.
	w, _ = h.do(http.MethodPost, "/api/v1/inventory", bob, item)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = h.do(http.MethodGet, "/api/v1/inventory/"+itoa(id), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = h.do(http.MethodGet, "/api/v1/inventory/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = h.do(http.MethodGet, "/api/v1/inventory?page=1&page_size=10", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"page":1,"page_size":10,"total":1}`, string(resp.Meta))

	w, resp = h.do(http.MethodGet, "/api/v1/low-stock", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var low []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &low))
	assert.Len(t, low, 1)

	w, _ = h.do(http.MethodPut, "/api/v1/inventory/"+itoa(id), alice, map[string]interface{}{"quantity": 50})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = h.do(http.MethodGet, "/api/v1/low-stock", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(resp.Data))

	w, _ = h.do(http.MethodGet, "/api/v1/inventory-report", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="inventory.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "W-1")

	w, _ = h.do(http.MethodDelete, "/api/v1/inventory/"+itoa(id), alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(http.MethodGet, "/api/v1/inventory/"+itoa(id), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSupplierEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	h.register("alice")
	alice := h.login("alice").AccessToken

	w, resp := h.do(http.MethodPost, "/api/v1/suppliers", alice, map[string]interface{}{
		"name": "Acme", "gst_number": "bad",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Errors, "gst_number")

	w, resp = h.do(http.MethodPost, "/api/v1/suppliers", alice, map[string]interface{}{
		"name": "Acme", "gst_number": "22AAAAA0000A1Z5",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeID(t, resp.Data)

	w, _ = h.do(http.MethodPut, "/api/v1/suppliers/"+itoa(id), alice, map[string]interface{}{"name": "Acme Ltd"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = h.do(http.MethodGet, "/api/v1/suppliers", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), "Acme Ltd")

	w, _ = h.do(http.MethodDelete, "/api/v1/suppliers/"+itoa(id), alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	h.register("alice")
	h.register("admin")
	h.promote("admin")
	alice := h.login("alice").AccessToken
	admin := h.login("admin").AccessToken

	w, resp := h.do(http.MethodPost, "/api/v1/inventory", alice, map[string]interface{}{
		"name": "Widget", "sku": "W-1", "quantity": 10, "price": "10.00", "threshold": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	itemID := decodeID(t, resp.Data)

	w, resp = h.do(http.MethodPost, "/api/v1/orders", alice, map[string]interface{}{
		"items":            []map[string]interface{}{{"item_id": itemID, "quantity": 3}},
		"delivery_address": "1 Main St",
		"billing_name":     "Alice",
		"billing_address":  "1 Main St",
		"discounts":        []map[string]interface{}{{"type": "PERCENTAGE", "value": "10"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order struct {
		ID          int64  `json:"id"`
		Status      string `json:"status"`
		Subtotal    string `json:"subtotal"`
		TotalAmount string `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	assert.Equal(t, "PENDING", order.Status)
	assert.Equal(t, "27", trimZeros(order.TotalAmount))

	w, resp = h.do(http.MethodPost, "/api/v1/orders", alice, map[string]interface{}{
		"items":            []map[string]interface{}{},
		"delivery_address": "x", "billing_name": "x", "billing_address": "x",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "No items selected for order", resp.Message)

	path := "/api/v1/orders/" + itoa(order.ID)

	w, resp = h.do(http.MethodPost, path+"/discounts", alice, map[string]interface{}{
		"discounts": []map[string]interface{}{{"type": "FIXED", "value": "5"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	assert.Equal(t, "25", trimZeros(order.TotalAmount))

	w, _ = h.do(http.MethodPost, path+"/update-status", alice, map[string]string{"status": "SHIPPED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = h.do(http.MethodPost, path+"/update-status", admin, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Errors, "status")

	w, resp = h.do(http.MethodPost, path+"/update-status", admin, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order status updated to SHIPPED", resp.Message)

	w, resp = h.do(http.MethodGet, "/api/v1/orders/history?status=SHIPPED", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	assert.Len(t, history, 1)

	w, _ = h.do(http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NotEmpty(t, h.events.Published())

	w, _ = h.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	checker := health.NewChecker(time.Second)
	checker.Register("database", func(ctx context.Context) error { return nil }, false)
	checker.Register("redis", func(ctx context.Context) error { return errors.New("connection refused") }, true)
	h := newHarness(t, checker)

	w, _ := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Status      string   `json:"status"`
		Unavailable []string `json:"unavailable_services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, health.StatusDegraded, summary.Status)
	assert.Equal(t, []string{"redis"}, summary.Unavailable)

	w, _ = h.do(http.MethodGet, "/health/detailed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"overall_status":"degraded"`)

	w, _ = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthUnavailable(t *testing.T) {
	checker := health.NewChecker(time.Second)
	checker.Register("database", func(ctx context.Context) error { return errors.New("down") }, false)
	h := newHarness(t, checker)

	w, _ := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewRouterRejectsBadRate(t *testing.T) {
	_, err := NewRouter(Services{Health: health.NewChecker(time.Second)}, Options{RateLimit: "lots"})
	assert.Error(t, err)
}
