package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/internal/orders"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

type testOrdersService struct {
	createFn           func(ctx context.Context, input orders.CreateOrderInput) (*models.PurchaseOrder, error)
	setStatusFn        func(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.PurchaseOrder, error)
	completeDeliveryFn func(ctx context.Context, orderID uuid.UUID, actualQuantity *float64) (*models.PurchaseOrder, error)
	cancelFn           func(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error)
	getByIDFn          func(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error)
	listFn             func(ctx context.Context) ([]models.PurchaseOrder, error)
	listByStatusFn     func(ctx context.Context, status enums.OrderStatus) ([]models.PurchaseOrder, error)
	listBySupplierFn   func(ctx context.Context, supplierID uuid.UUID) ([]models.PurchaseOrder, error)
}

func (s *testOrdersService) CreateManual(ctx context.Context, input orders.CreateOrderInput) (*models.PurchaseOrder, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return nil, nil
}

func (s *testOrdersService) SetStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.PurchaseOrder, error) {
	if s.setStatusFn != nil {
		return s.setStatusFn(ctx, orderID, next)
	}
	return nil, nil
}

func (s *testOrdersService) CompleteDelivery(ctx context.Context, orderID uuid.UUID, actualQuantity *float64) (*models.PurchaseOrder, error) {
	if s.completeDeliveryFn != nil {
		return s.completeDeliveryFn(ctx, orderID, actualQuantity)
	}
	return nil, nil
}

func (s *testOrdersService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, orderID)
	}
	return nil, nil
}

func (s *testOrdersService) GetByID(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, orderID)
	}
	return nil, nil
}

func (s *testOrdersService) List(ctx context.Context) ([]models.PurchaseOrder, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *testOrdersService) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.PurchaseOrder, error) {
	if s.listByStatusFn != nil {
		return s.listByStatusFn(ctx, status)
	}
	return nil, nil
}

func (s *testOrdersService) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.PurchaseOrder, error) {
	if s.listBySupplierFn != nil {
		return s.listBySupplierFn(ctx, supplierID)
	}
	return nil, nil
}

func TestCreateOrderAttributesActorAndParsesPrice(t *testing.T) {
	actorID := uuid.New()
	supplierID := uuid.New()
	productID := uuid.New()
	warehouseID := uuid.New()

	svc := &testOrdersService{
		createFn: func(_ context.Context, input orders.CreateOrderInput) (*models.PurchaseOrder, error) {
			if input.RequestedBy != actorID {
				t.Fatalf("expected actor attribution, got %s", input.RequestedBy)
			}
			if !input.UnitPrice.Equal(decimal.RequireFromString("12.50")) {
				t.Fatalf("unexpected unit price %s", input.UnitPrice)
			}
			if input.RequestedQuantity != 40 {
				t.Fatalf("unexpected quantity %v", input.RequestedQuantity)
			}
			return &models.PurchaseOrder{
				ID:          uuid.New(),
				SupplierID:  input.SupplierID,
				ProductID:   input.ProductID,
				WarehouseID: input.WarehouseID,
				RequestedBy: input.RequestedBy,
				Status:      enums.OrderStatusPending,
				OrderType:   enums.OrderTypeManual,
			}, nil
		},
	}

	handler, setActor := withActor(CreateOrder(svc, testControllerLogger()), actorID)
	body := `{
		"supplierId": "` + supplierID.String() + `",
		"productId": "` + productID.String() + `",
		"warehouseId": "` + warehouseID.String() + `",
		"quantity": 40,
		"unitPrice": "12.50"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "PENDING" {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestCreateOrderRejectsBadPrice(t *testing.T) {
	handler, setActor := withActor(CreateOrder(&testOrdersService{}, testControllerLogger()), uuid.New())
	body := `{
		"supplierId": "` + uuid.NewString() + `",
		"productId": "` + uuid.NewString() + `",
		"warehouseId": "` + uuid.NewString() + `",
		"quantity": 40,
		"unitPrice": "twelve"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateOrderConflictSurfacesAs409(t *testing.T) {
	svc := &testOrdersService{
		createFn: func(context.Context, orders.CreateOrderInput) (*models.PurchaseOrder, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an open purchase order already exists for this product and warehouse")
		},
	}
	handler, setActor := withActor(CreateOrder(svc, testControllerLogger()), uuid.New())
	body := `{
		"supplierId": "` + uuid.NewString() + `",
		"productId": "` + uuid.NewString() + `",
		"warehouseId": "` + uuid.NewString() + `",
		"quantity": 40,
		"unitPrice": "10"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestUpdateOrderStatusParsesAndForwards(t *testing.T) {
	orderID := uuid.New()
	svc := &testOrdersService{
		setStatusFn: func(_ context.Context, id uuid.UUID, next enums.OrderStatus) (*models.PurchaseOrder, error) {
			if id != orderID || next != enums.OrderStatusSent {
				t.Fatalf("unexpected args %s %s", id, next)
			}
			return &models.PurchaseOrder{ID: id, Status: next}, nil
		},
	}

	handler, setActor := withActor(UpdateOrderStatus(svc, testControllerLogger()), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{"status": "SENT"}`))
	req = withPathParam(req, "orderId", orderID.String())
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	orderID := uuid.New()
	handler, setActor := withActor(UpdateOrderStatus(&testOrdersService{}, testControllerLogger()), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{"status": "TELEPORTED"}`))
	req = withPathParam(req, "orderId", orderID.String())
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCompleteDeliveryWithoutBody(t *testing.T) {
	orderID := uuid.New()
	svc := &testOrdersService{
		completeDeliveryFn: func(_ context.Context, id uuid.UUID, actualQuantity *float64) (*models.PurchaseOrder, error) {
			if actualQuantity != nil {
				t.Fatalf("expected nil actual quantity, got %v", *actualQuantity)
			}
			return &models.PurchaseOrder{ID: id, Status: enums.OrderStatusDelivered}, nil
		},
	}

	handler, setActor := withActor(CompleteDelivery(svc, testControllerLogger()), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/complete-delivery", nil)
	req = withPathParam(req, "orderId", orderID.String())
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCompleteDeliveryWithActualQuantity(t *testing.T) {
	orderID := uuid.New()
	svc := &testOrdersService{
		completeDeliveryFn: func(_ context.Context, id uuid.UUID, actualQuantity *float64) (*models.PurchaseOrder, error) {
			if actualQuantity == nil || *actualQuantity != 31.5 {
				t.Fatalf("expected actual quantity 31.5, got %v", actualQuantity)
			}
			return &models.PurchaseOrder{ID: id, Status: enums.OrderStatusDelivered}, nil
		},
	}

	handler, setActor := withActor(CompleteDelivery(svc, testControllerLogger()), uuid.New())
	body := `{"actualQuantity": 31.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/complete-delivery", strings.NewReader(body))
	req = withPathParam(req, "orderId", orderID.String())
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListOrdersRoutesFilters(t *testing.T) {
	supplierID := uuid.New()
	svc := &testOrdersService{
		listBySupplierFn: func(_ context.Context, id uuid.UUID) ([]models.PurchaseOrder, error) {
			if id != supplierID {
				t.Fatalf("unexpected supplier %s", id)
			}
			return []models.PurchaseOrder{{ID: uuid.New(), SupplierID: id}}, nil
		},
		listByStatusFn: func(_ context.Context, status enums.OrderStatus) ([]models.PurchaseOrder, error) {
			if status != enums.OrderStatusPending {
				t.Fatalf("unexpected status %s", status)
			}
			return nil, nil
		},
	}

	handler := ListOrders(svc, testControllerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?supplierId="+supplierID.String(), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("supplier filter: unexpected status %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=PENDING", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status filter: unexpected status %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=BOGUS", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter: expected 400, got %d", resp.Code)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	orderID := uuid.New()
	svc := &testOrdersService{
		getByIDFn: func(context.Context, uuid.UUID) (*models.PurchaseOrder, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		},
	}

	handler := GetOrder(svc, testControllerLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withPathParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
