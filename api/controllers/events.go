package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/events"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type eventResponse struct {
	ID               uuid.UUID       `json:"id"`
	InventoryID      uuid.UUID       `json:"inventoryId"`
	ProductID        uuid.UUID       `json:"productId"`
	WarehouseID      uuid.UUID       `json:"warehouseId"`
	EventType        string          `json:"eventType"`
	PreviousQuantity float64         `json:"previousQuantity"`
	NewQuantity      float64         `json:"newQuantity"`
	Timestamp        time.Time       `json:"timestamp"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

func toEventResponses(list []models.InventoryEvent) []eventResponse {
	out := make([]eventResponse, 0, len(list))
	for _, event := range list {
		out = append(out, eventResponse{
			ID:               event.ID,
			InventoryID:      event.InventoryID,
			ProductID:        event.ProductID,
			WarehouseID:      event.WarehouseID,
			EventType:        event.EventType.String(),
			PreviousQuantity: event.PreviousQuantity,
			NewQuantity:      event.NewQuantity,
			Timestamp:        event.Timestamp,
			Metadata:         event.Metadata,
		})
	}
	return out
}

// ListInventoryEvents returns the full trail for one record, newest first.
func ListInventoryEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := validators.ParsePathUUID(chi.URLParam(r, "inventoryId"), "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByInventory(r.Context(), inventoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEventResponses(list))
	}
}

// ListEvents filters the log by product, warehouse, type, or a time range;
// with no filters it returns the most recent entries.
func ListEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID, err := validators.ParseQueryUUID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		warehouseID, err := validators.ParseQueryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		start, err := validators.ParseQueryTime(r, "start")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		end, err := validators.ParseQueryTime(r, "end")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var list []models.InventoryEvent
		switch {
		case productID != uuid.Nil:
			list, err = svc.ListByProduct(ctx, productID)
		case warehouseID != uuid.Nil:
			list, err = svc.ListByWarehouse(ctx, warehouseID)
		case r.URL.Query().Get("type") != "":
			var eventType enums.InventoryEventType
			eventType, err = enums.ParseInventoryEventType(r.URL.Query().Get("type"))
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown event type"))
				return
			}
			list, err = svc.ListByType(ctx, eventType)
		case !start.IsZero() || !end.IsZero():
			if start.IsZero() || end.IsZero() {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "start and end must be supplied together"))
				return
			}
			list, err = svc.ListByTimeRange(ctx, start, end)
		default:
			list, err = svc.ListRecent(ctx, limit)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEventResponses(list))
	}
}

// ListTodayEvents returns everything recorded since UTC midnight.
func ListTodayEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListToday(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEventResponses(list))
	}
}

// EventStats returns event counts grouped by type.
func EventStats(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.CountByType(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats := make(map[string]int64, len(counts))
		for eventType, count := range counts {
			stats[eventType.String()] = count
		}
		responses.WriteSuccess(w, stats)
	}
}
