package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/orders"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

type orderResponse struct {
	ID                   uuid.UUID       `json:"id"`
	SupplierID           uuid.UUID       `json:"supplierId"`
	ProductID            uuid.UUID       `json:"productId"`
	WarehouseID          uuid.UUID       `json:"warehouseId"`
	RequestedBy          uuid.UUID       `json:"requestedBy"`
	RequestedQuantity    float64         `json:"requestedQuantity"`
	UnitPrice            decimal.Decimal `json:"unitPrice"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	Status               string          `json:"status"`
	OrderType            string          `json:"orderType"`
	Notes                *string         `json:"notes,omitempty"`
	RequestedAt          time.Time       `json:"requestedAt"`
	ExpectedDeliveryDate *time.Time      `json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time      `json:"actualDeliveryDate,omitempty"`
}

func toOrderResponse(order *models.PurchaseOrder) orderResponse {
	return orderResponse{
		ID:                   order.ID,
		SupplierID:           order.SupplierID,
		ProductID:            order.ProductID,
		WarehouseID:          order.WarehouseID,
		RequestedBy:          order.RequestedBy,
		RequestedQuantity:    order.RequestedQuantity,
		UnitPrice:            order.UnitPrice,
		TotalAmount:          order.TotalAmount,
		Status:               order.Status.String(),
		OrderType:            order.OrderType.String(),
		Notes:                order.Notes,
		RequestedAt:          order.RequestedAt,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		ActualDeliveryDate:   order.ActualDeliveryDate,
	}
}

func toOrderResponses(list []models.PurchaseOrder) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for i := range list {
		out = append(out, toOrderResponse(&list[i]))
	}
	return out
}

type createOrderRequest struct {
	SupplierID           uuid.UUID  `json:"supplierId" validate:"required"`
	ProductID            uuid.UUID  `json:"productId" validate:"required"`
	WarehouseID          uuid.UUID  `json:"warehouseId" validate:"required"`
	Quantity             float64    `json:"quantity" validate:"required,gt=0"`
	UnitPrice            string     `json:"unitPrice" validate:"required"`
	Notes                *string    `json:"notes,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate,omitempty"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type completeDeliveryRequest struct {
	ActualQuantity *float64 `json:"actualQuantity,omitempty" validate:"omitempty,gt=0"`
}

// CreateOrder raises a manual purchase order attributed to the calling
// actor.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitPrice, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unitPrice must be a decimal string"))
			return
		}

		order, err := svc.CreateManual(r.Context(), orders.CreateOrderInput{
			SupplierID:           req.SupplierID,
			ProductID:            req.ProductID,
			WarehouseID:          req.WarehouseID,
			RequestedBy:          actorID,
			RequestedQuantity:    req.Quantity,
			UnitPrice:            unitPrice,
			OrderType:            enums.OrderTypeManual,
			Notes:                req.Notes,
			ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}

// ListOrders returns orders, optionally filtered by status or supplier.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := validators.ParseQueryUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var list []models.PurchaseOrder
		switch {
		case supplierID != uuid.Nil:
			list, err = svc.ListBySupplier(r.Context(), supplierID)
		case r.URL.Query().Get("status") != "":
			var status enums.OrderStatus
			status, err = enums.ParseOrderStatus(r.URL.Query().Get("status"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			list, err = svc.ListByStatus(r.Context(), status)
		default:
			list, err = svc.List(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponses(list))
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

// UpdateOrderStatus advances an order along its lifecycle. Moving to
// DELIVERED routes through the full delivery completion.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := middleware.RequireActor(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		order, err := svc.SetStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

// CompleteDelivery marks an order delivered and credits the stock. Safe to
// repeat; a second call returns the order unchanged.
func CompleteDelivery(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := middleware.RequireActor(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := completeDeliveryRequest{}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.CompleteDelivery(r.Context(), orderID, req.ActualQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := middleware.RequireActor(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}
