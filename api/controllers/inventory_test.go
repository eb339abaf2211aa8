package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/internal/reorder"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

type testInventoryService struct {
	addStockFn     func(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error)
	removeStockFn  func(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error)
	moveStockFn    func(ctx context.Context, inventoryID uuid.UUID, newLocation, reason string) (*models.InventoryRecord, error)
	findOrCreateFn func(ctx context.Context, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error)
	getByIDFn      func(ctx context.Context, inventoryID uuid.UUID) (*models.InventoryRecord, error)
	listFn         func(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryRecord, error)
	listLowStockFn func(ctx context.Context) ([]models.InventoryRecord, error)
	statsFn        func(ctx context.Context, warehouseID uuid.UUID) (*inventory.WarehouseStats, error)
}

func (s *testInventoryService) AddStock(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error) {
	if s.addStockFn != nil {
		return s.addStockFn(ctx, inventoryID, quantity, reason)
	}
	return nil, nil
}

func (s *testInventoryService) AddStockTx(ctx context.Context, _ *gorm.DB, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error) {
	return s.AddStock(ctx, inventoryID, quantity, reason)
}

func (s *testInventoryService) RemoveStock(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error) {
	if s.removeStockFn != nil {
		return s.removeStockFn(ctx, inventoryID, quantity, reason)
	}
	return nil, nil
}

func (s *testInventoryService) MoveStock(ctx context.Context, inventoryID uuid.UUID, newLocation, reason string) (*models.InventoryRecord, error) {
	if s.moveStockFn != nil {
		return s.moveStockFn(ctx, inventoryID, newLocation, reason)
	}
	return nil, nil
}

func (s *testInventoryService) FindOrCreate(ctx context.Context, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error) {
	if s.findOrCreateFn != nil {
		return s.findOrCreateFn(ctx, warehouseID, productID)
	}
	return nil, nil
}

func (s *testInventoryService) FindOrCreateTx(ctx context.Context, _ *gorm.DB, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error) {
	return s.FindOrCreate(ctx, warehouseID, productID)
}

func (s *testInventoryService) GetByID(ctx context.Context, inventoryID uuid.UUID) (*models.InventoryRecord, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, inventoryID)
	}
	return nil, nil
}

func (s *testInventoryService) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryRecord, error) {
	if s.listFn != nil {
		return s.listFn(ctx, warehouseID)
	}
	return nil, nil
}

func (s *testInventoryService) ListLowStock(ctx context.Context) ([]models.InventoryRecord, error) {
	if s.listLowStockFn != nil {
		return s.listLowStockFn(ctx)
	}
	return nil, nil
}

func (s *testInventoryService) WarehouseStats(ctx context.Context, warehouseID uuid.UUID) (*inventory.WarehouseStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, warehouseID)
	}
	return &inventory.WarehouseStats{}, nil
}

type testReorderEngine struct {
	scanFn func(ctx context.Context, params reorder.ScanParams) (reorder.ScanResult, error)
}

func (e *testReorderEngine) Scan(ctx context.Context, params reorder.ScanParams) (reorder.ScanResult, error) {
	if e.scanFn != nil {
		return e.scanFn(ctx, params)
	}
	return reorder.ScanResult{}, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

// withActor runs the handler behind the actor middleware with the header set.
func withActor(handler http.HandlerFunc, actorID uuid.UUID) (http.Handler, func(*http.Request)) {
	wrapped := middleware.Actor(testControllerLogger())(handler)
	return wrapped, func(r *http.Request) {
		r.Header.Set(middleware.ActorIDHeader, actorID.String())
	}
}

func withPathParam(r *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func TestAddStockSuccess(t *testing.T) {
	inventoryID := uuid.New()
	actorID := uuid.New()
	called := false
	svc := &testInventoryService{
		addStockFn: func(_ context.Context, id uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error) {
			called = true
			if id != inventoryID {
				t.Fatalf("unexpected inventory id %s", id)
			}
			if quantity != 7.5 || reason != "delivery intake" {
				t.Fatalf("unexpected args %v %q", quantity, reason)
			}
			return &models.InventoryRecord{
				ID:          id,
				WarehouseID: uuid.New(),
				ProductID:   uuid.New(),
				Location:    "aisle-1",
				Quantity:    17.5,
				UpdatedAt:   time.Now(),
			}, nil
		},
	}

	handler, setActor := withActor(AddStock(svc, testControllerLogger()), actorID)
	body := `{"quantity": 7.5, "reason": "delivery intake"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/"+inventoryID.String()+"/add", strings.NewReader(body))
	req = withPathParam(req, "inventoryId", inventoryID.String())
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}

	var envelope struct {
		Data inventoryResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Quantity != 17.5 {
		t.Fatalf("unexpected quantity %v", envelope.Data.Quantity)
	}
}

func TestAddStockRequiresActor(t *testing.T) {
	svc := &testInventoryService{
		addStockFn: func(context.Context, uuid.UUID, float64, string) (*models.InventoryRecord, error) {
			t.Fatal("service must not be called without an actor")
			return nil, nil
		},
	}

	inventoryID := uuid.New()
	handler := AddStock(svc, testControllerLogger())
	body := `{"quantity": 5, "reason": "intake"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/"+inventoryID.String()+"/add", strings.NewReader(body))
	req = withPathParam(req, "inventoryId", inventoryID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAddStockRejectsInvalidBody(t *testing.T) {
	svc := &testInventoryService{}
	inventoryID := uuid.New()
	handler, setActor := withActor(AddStock(svc, testControllerLogger()), uuid.New())

	cases := []string{
		`{"quantity": -2, "reason": "intake"}`,
		`{"quantity": 5}`,
		`{"quantity": 5, "reason": "intake", "extra": true}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/"+inventoryID.String()+"/add", strings.NewReader(body))
		req = withPathParam(req, "inventoryId", inventoryID.String())
		setActor(req)

		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.Code)
		}
	}
}

func TestAddStockRejectsBadPathID(t *testing.T) {
	handler, setActor := withActor(AddStock(&testInventoryService{}, testControllerLogger()), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/nope/add", strings.NewReader(`{}`))
	req = withPathParam(req, "inventoryId", "nope")
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateInventoryReturnsCreated(t *testing.T) {
	warehouseID := uuid.New()
	productID := uuid.New()
	svc := &testInventoryService{
		findOrCreateFn: func(_ context.Context, w, p uuid.UUID) (*models.InventoryRecord, error) {
			if w != warehouseID || p != productID {
				t.Fatalf("unexpected ids %s %s", w, p)
			}
			return &models.InventoryRecord{ID: uuid.New(), WarehouseID: w, ProductID: p}, nil
		},
	}

	handler := CreateInventory(svc, testControllerLogger())
	body := `{"warehouseId": "` + warehouseID.String() + `", "productId": "` + productID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListInventoryRequiresWarehouse(t *testing.T) {
	handler := ListInventory(&testInventoryService{}, testControllerLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without warehouseId, got %d", resp.Code)
	}
}

func TestTriggerAutoOrdersPassesActor(t *testing.T) {
	actorID := uuid.New()
	engine := &testReorderEngine{
		scanFn: func(_ context.Context, params reorder.ScanParams) (reorder.ScanResult, error) {
			if params.RequestedBy != actorID {
				t.Fatalf("expected actor %s, got %s", actorID, params.RequestedBy)
			}
			return reorder.ScanResult{
				Scanned: 2,
				Skipped: 1,
				Created: []models.PurchaseOrder{{ID: uuid.New()}},
			}, nil
		},
	}

	handler, setActor := withActor(TriggerAutoOrders(engine, testControllerLogger()), actorID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/trigger-auto-orders", nil)
	setActor(req)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["scanned"].(float64) != 2 || data["skipped"].(float64) != 1 {
		t.Fatalf("unexpected payload %v", data)
	}
	if len(data["orders"].([]any)) != 1 {
		t.Fatalf("expected 1 order in payload")
	}
}

func TestWarehouseStatsReturnsAggregates(t *testing.T) {
	warehouseID := uuid.New()
	svc := &testInventoryService{
		statsFn: func(_ context.Context, gotWarehouse uuid.UUID) (*inventory.WarehouseStats, error) {
			if gotWarehouse != warehouseID {
				t.Fatalf("unexpected warehouse id %s", gotWarehouse)
			}
			return &inventory.WarehouseStats{
				RecordCount:   3,
				TotalQuantity: 42.5,
				LowStockCount: 1,
				TotalValue:    decimal.RequireFromString("107.50"),
			}, nil
		},
	}

	handler := WarehouseStats(svc, testControllerLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/stats?warehouseId="+warehouseID.String(), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["warehouseId"].(string) != warehouseID.String() {
		t.Fatalf("unexpected warehouse id in payload: %v", data["warehouseId"])
	}
	if data["recordCount"].(float64) != 3 || data["lowStockCount"].(float64) != 1 {
		t.Fatalf("unexpected counts %v", data)
	}
	if data["totalQuantity"].(float64) != 42.5 {
		t.Fatalf("unexpected total quantity %v", data["totalQuantity"])
	}
	if data["totalValue"].(string) != "107.5" {
		t.Fatalf("unexpected total value %v", data["totalValue"])
	}
}

func TestWarehouseStatsRequiresWarehouse(t *testing.T) {
	called := false
	svc := &testInventoryService{
		statsFn: func(context.Context, uuid.UUID) (*inventory.WarehouseStats, error) {
			called = true
			return nil, nil
		},
	}

	handler := WarehouseStats(svc, testControllerLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/stats", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without warehouseId, got %d", resp.Code)
	}
	if called {
		t.Fatal("service must not be called without a warehouse id")
	}
}
