package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/internal/reorder"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type inventoryResponse struct {
	ID               uuid.UUID  `json:"id"`
	WarehouseID      uuid.UUID  `json:"warehouseId"`
	ProductID        uuid.UUID  `json:"productId"`
	Location         string     `json:"location"`
	Quantity         float64    `json:"quantity"`
	MinimumThreshold float64    `json:"minimumThreshold"`
	ExpiryDate       *time.Time `json:"expiryDate,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func toInventoryResponse(record *models.InventoryRecord) inventoryResponse {
	return inventoryResponse{
		ID:               record.ID,
		WarehouseID:      record.WarehouseID,
		ProductID:        record.ProductID,
		Location:         record.Location,
		Quantity:         record.Quantity,
		MinimumThreshold: record.MinimumThreshold,
		ExpiryDate:       record.ExpiryDate,
		UpdatedAt:        record.UpdatedAt,
	}
}

func toInventoryResponses(records []models.InventoryRecord) []inventoryResponse {
	out := make([]inventoryResponse, 0, len(records))
	for i := range records {
		out = append(out, toInventoryResponse(&records[i]))
	}
	return out
}

type findOrCreateRequest struct {
	WarehouseID uuid.UUID `json:"warehouseId" validate:"required"`
	ProductID   uuid.UUID `json:"productId" validate:"required"`
}

type stockMutationRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Reason   string  `json:"reason" validate:"required"`
}

type moveStockRequest struct {
	NewLocation string `json:"newLocation" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
}

// CreateInventory returns the record for (warehouse, product), creating an
// empty one if this is the first time the pair is seen.
func CreateInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req findOrCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.FindOrCreate(r.Context(), req.WarehouseID, req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toInventoryResponse(record))
	}
}

// AddStock credits quantity to a record and appends a STOCK_ADDED event.
func AddStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return stockMutation(svc.AddStock, logg)
}

// RemoveStock debits quantity and rejects anything that would drive the
// position negative.
func RemoveStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return stockMutation(svc.RemoveStock, logg)
}

type stockMutationFunc func(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error)

func stockMutation(op stockMutationFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := validators.ParsePathUUID(chi.URLParam(r, "inventoryId"), "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := middleware.RequireActor(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req stockMutationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := op(r.Context(), inventoryID, req.Quantity, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInventoryResponse(record))
	}
}

func MoveStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := validators.ParsePathUUID(chi.URLParam(r, "inventoryId"), "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := middleware.RequireActor(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req moveStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.MoveStock(r.Context(), inventoryID, req.NewLocation, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInventoryResponse(record))
	}
}

func GetInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := validators.ParsePathUUID(chi.URLParam(r, "inventoryId"), "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetByID(r.Context(), inventoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInventoryResponse(record))
	}
}

// ListInventory returns every record in one warehouse.
func ListInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := validators.ParseQueryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if warehouseID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "warehouseId query parameter is required"))
			return
		}

		records, err := svc.ListByWarehouse(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInventoryResponses(records))
	}
}

// ListLowStock returns under-threshold records, most urgent first.
func ListLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toInventoryResponses(records))
	}
}

type warehouseStatsResponse struct {
	WarehouseID   uuid.UUID       `json:"warehouseId"`
	RecordCount   int64           `json:"recordCount"`
	TotalQuantity float64         `json:"totalQuantity"`
	LowStockCount int64           `json:"lowStockCount"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// WarehouseStats summarises the stock position of one warehouse, including
// total value priced from the product master data.
func WarehouseStats(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := validators.ParseQueryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if warehouseID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "warehouseId query parameter is required"))
			return
		}

		stats, err := svc.WarehouseStats(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouseStatsResponse{
			WarehouseID:   warehouseID,
			RecordCount:   stats.RecordCount,
			TotalQuantity: stats.TotalQuantity,
			LowStockCount: stats.LowStockCount,
			TotalValue:    stats.TotalValue,
		})
	}
}

// TriggerAutoOrders runs one reorder scan on demand and returns the orders
// it created, attributed to the calling actor.
func TriggerAutoOrders(engine reorder.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.Scan(r.Context(), reorder.ScanParams{RequestedBy: actorID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"scanned": result.Scanned,
			"skipped": result.Skipped,
			"orders":  toOrderResponses(result.Created),
		})
	}
}
