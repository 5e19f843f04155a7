package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-inventory-pos/internal/middleware"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderAPI struct {
	app      *fiber.App
	supplier *model.Supplier
	widget   *model.Product
	shirt    *model.Product
}

// newOrderAPI mounts the purchase order routes behind a stub that grants privileges.
func newOrderAPI(t *testing.T, privileges ...string) *orderAPI {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)

	products := repository.NewProductRepo(db)
	suppliers := repository.NewSupplierRepo(db)

	api := &orderAPI{
		supplier: &model.Supplier{SoftDelete: model.SoftDelete{Active: true}, Name: "Acme"},
		widget:   &model.Product{SoftDelete: model.SoftDelete{Active: true}, SKU: "A-1", Name: "Widget", Stock: 10},
		shirt: &model.Product{
			SoftDelete:  model.SoftDelete{Active: true},
			SKU:         "B-1",
			Name:        "Shirt",
			HasVariants: true,
			Variants:    []model.ProductVariant{{Name: "Red-M", Stock: 2}},
		},
	}
	require.NoError(t, suppliers.Create(ctx, api.supplier))
	require.NoError(t, products.Create(ctx, api.widget))
	require.NoError(t, products.Create(ctx, api.shirt))

	orders := service.NewPurchaseOrderService(db, repository.NewPurchaseOrderRepo(db), products, suppliers,
		repository.NewCounterRepo(db), repository.NewStockMovementRepo(db))
	h := NewPurchaseOrderHandler(orders, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, "user-1")
		c.Locals(middleware.LocalUserName, "Ann")
		c.Locals(middleware.LocalPrivileges, privileges)
		return c.Next()
	})
	app.Post("/purchase-orders", h.CreateOrder)
	app.Get("/purchase-orders", h.ListOrders)
	app.Get("/purchase-orders/:id", h.GetOrder)
	app.Post("/purchase-orders/:id/status", h.UpdateStatus)
	app.Delete("/purchase-orders/:id", h.DeleteOrder)
	api.app = app
	return api
}

func (a *orderAPI) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (a *orderAPI) create(t *testing.T) string {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/purchase-orders", map[string]any{
		"supplier_id": a.supplier.ID,
		"items": []map[string]any{
			{"product_id": a.widget.ID, "quantity": 4, "unit_cost": "2.50"},
		},
	})
	require.Equal(t, http.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	return data["id"].(string)
}

func TestPurchaseOrderHandler_CreateAndGet(t *testing.T) {
	api := newOrderAPI(t)

	id := api.create(t)
	status, body := api.do(t, http.MethodGet, "/purchase-orders/"+id, nil)
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]any)
	assert.Equal(t, fmt.Sprintf("PO-%d-0001", time.Now().Year()), data["order_number"])
	assert.Equal(t, "draft", data["status"])
	assert.Equal(t, []any{"ordered", "cancelled"}, body["allowed_transitions"])

	status, body = api.do(t, http.MethodGet, "/purchase-orders?status=draft", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
	assert.EqualValues(t, 1, body["pagination"].(map[string]any)["total"])
}

func TestPurchaseOrderHandler_ErrorStatuses(t *testing.T) {
	api := newOrderAPI(t)
	id := api.create(t)

	t.Run("receiving needs the receive privilege", func(t *testing.T) {
		status, body := api.do(t, http.MethodPost, "/purchase-orders/"+id+"/status", map[string]any{"status": "received"})
		assert.Equal(t, http.StatusForbidden, status, body)
	})

	t.Run("variant mismatch is unprocessable", func(t *testing.T) {
		status, body := api.do(t, http.MethodPost, "/purchase-orders", map[string]any{
			"supplier_id": api.supplier.ID,
			"items":       []map[string]any{{"product_id": api.shirt.ID, "quantity": 1, "unit_cost": "1"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, status, body)
	})

	t.Run("empty items list reports fields", func(t *testing.T) {
		status, body := api.do(t, http.MethodPost, "/purchase-orders", map[string]any{"supplier_id": api.supplier.ID})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "validation failed", body["error"])
		assert.NotEmpty(t, body["errors"])
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		status, _ := api.do(t, http.MethodGet, "/purchase-orders/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		status, _ := api.do(t, http.MethodGet, "/purchase-orders/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("unknown status value is a bad request", func(t *testing.T) {
		status, _ := api.do(t, http.MethodPost, "/purchase-orders/"+id+"/status", map[string]any{"status": "shipped"})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestPurchaseOrderHandler_Transitions(t *testing.T) {
	api := newOrderAPI(t, model.PrivPOReceive)
	id := api.create(t)

	status, body := api.do(t, http.MethodPost, "/purchase-orders/"+id+"/status", map[string]any{"status": "received"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "draft", body["from"])
	assert.Equal(t, "received", body["to"])
	assert.Equal(t, []any{"ordered", "cancelled"}, body["allowed"])

	status, _ = api.do(t, http.MethodPost, "/purchase-orders/"+id+"/status", map[string]any{"status": "ordered"})
	require.Equal(t, http.StatusOK, status)
	status, body = api.do(t, http.MethodPost, "/purchase-orders/"+id+"/status", map[string]any{"status": "received"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "received", body["data"].(map[string]any)["status"])

	status, _ = api.do(t, http.MethodDelete, "/purchase-orders/"+id, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodGet, "/purchase-orders/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: connection refused") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["error"])
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		service.ErrNotFound:             http.StatusNotFound,
		service.ErrImmutableAfterDraft:  http.StatusConflict,
		service.ErrDuplicateOrderNumber: http.StatusConflict,
		service.ErrOrderBusy:            http.StatusConflict,
		service.ErrVariantNotFound:      http.StatusUnprocessableEntity,
		service.ErrInsufficientStock:    http.StatusUnprocessableEntity,
		service.ErrInvalidCredentials:   http.StatusUnauthorized,
		fiber.ErrTooManyRequests:        http.StatusTooManyRequests,
		errors.New("boom"):              http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func TestRegister_RequiresToken(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	Register(app, Handlers{}, nil, nil)

	for _, path := range []string{"/api/v1/products", "/api/v1/purchase-orders", "/api/v1/settings"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		resp.Body.Close()
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	resp.Body.Close()
}
