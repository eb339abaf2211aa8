package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// CreateOrderInput carries the fields for a manually raised purchase order.
type CreateOrderInput struct {
	SupplierID           uuid.UUID
	ProductID            uuid.UUID
	WarehouseID          uuid.UUID
	RequestedBy          uuid.UUID
	RequestedQuantity    float64
	UnitPrice            decimal.Decimal
	OrderType            enums.OrderType
	Notes                *string
	ExpectedDeliveryDate *time.Time
}

// Service owns the purchase order lifecycle, including the stock credit that
// accompanies a completed delivery.
type Service interface {
	CreateManual(ctx context.Context, input CreateOrderInput) (*models.PurchaseOrder, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.PurchaseOrder, error)
	CompleteDelivery(ctx context.Context, orderID uuid.UUID, actualQuantity *float64) (*models.PurchaseOrder, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context) ([]models.PurchaseOrder, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.PurchaseOrder, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.PurchaseOrder, error)
}

type stockReceiver interface {
	FindOrCreateTx(ctx context.Context, tx *gorm.DB, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error)
	AddStockTx(ctx context.Context, tx *gorm.DB, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error)
}

type orderNotifier interface {
	NotifyOrderUpdate(ctx context.Context, order *models.PurchaseOrder, message string) error
}

// transitions lists the statuses each status may move to. Terminal statuses
// have no outgoing edges.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusSent, enums.OrderStatusCancelled},
	enums.OrderStatusSent:      {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusInTransit, enums.OrderStatusCancelled},
	enums.OrderStatusInTransit: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

type service struct {
	repo     Repository
	stock    stockReceiver
	notifier orderNotifier
	tx       db.TxRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires a purchase order service. All dependencies are required.
func NewService(repo Repository, stock stockReceiver, notifier orderNotifier, tx db.TxRunner, logg *logger.Logger) Service {
	if repo == nil || stock == nil || notifier == nil || tx == nil || logg == nil {
		panic("orders: NewService requires repo, stock, notifier, tx and logg")
	}
	return &service{
		repo:     repo,
		stock:    stock,
		notifier: notifier,
		tx:       tx,
		logg:     logg,
		now:      time.Now,
	}
}

func (s *service) CreateManual(ctx context.Context, input CreateOrderInput) (*models.PurchaseOrder, error) {
	if input.SupplierID == uuid.Nil || input.ProductID == uuid.Nil || input.WarehouseID == uuid.Nil || input.RequestedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier, product, warehouse and requester ids are required")
	}
	if input.RequestedQuantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity must be positive")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = enums.OrderTypeManual
	}

	order := &models.PurchaseOrder{
		SupplierID:           input.SupplierID,
		ProductID:            input.ProductID,
		WarehouseID:          input.WarehouseID,
		RequestedBy:          input.RequestedBy,
		RequestedQuantity:    input.RequestedQuantity,
		UnitPrice:            input.UnitPrice,
		TotalAmount:          input.UnitPrice.Mul(decimal.NewFromFloat(input.RequestedQuantity)),
		Status:               enums.OrderStatusPending,
		OrderType:            orderType,
		Notes:                input.Notes,
		RequestedAt:          s.now().UTC(),
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, models.OpenOrderConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an open purchase order already exists for this product and warehouse").
				WithDetails(map[string]any{
					"productId":   input.ProductID,
					"warehouseId": input.WarehouseID,
				})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create purchase order")
	}

	s.notifyUpdate(ctx, order, fmt.Sprintf("purchase order %s created for quantity %.2f", order.ID, order.RequestedQuantity))
	return order, nil
}

func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.PurchaseOrder, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if next == enums.OrderStatusDelivered {
		return s.CompleteDelivery(ctx, orderID, nil)
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := validateTransition(order.Status, next); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":     next,
		"updated_at": s.now().UTC(),
	}
	// Exclude the terminal states so a concurrent delivery or cancellation
	// cannot be overwritten between the read and the write.
	won, err := s.repo.TransitionGuarded(ctx, orderID, terminalStatuses(), updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
	}
	if !won {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order reached a terminal status concurrently")
	}

	order.Status = next
	s.notifyUpdate(ctx, order, fmt.Sprintf("purchase order %s moved to %s", order.ID, next))
	return order, nil
}

// CompleteDelivery marks the order delivered and credits the received
// quantity to the destination warehouse in the same transaction. A repeat
// call for an already delivered order returns it unchanged without touching
// stock. actualQuantity overrides the requested quantity when the shipment
// was short or over-delivered.
func (s *service) CompleteDelivery(ctx context.Context, orderID uuid.UUID, actualQuantity *float64) (*models.PurchaseOrder, error) {
	if actualQuantity != nil && *actualQuantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actual quantity must be positive")
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusDelivered {
		return order, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be delivered")
	}

	deliveredAt := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, txErr := repo.TransitionGuarded(ctx, orderID, terminalStatuses(), map[string]any{
			"status":               enums.OrderStatusDelivered,
			"actual_delivery_date": deliveredAt,
			"updated_at":           deliveredAt,
		})
		if txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "failed to mark order delivered")
		}
		if !won {
			// A concurrent call got there first; re-read to distinguish a
			// delivered duplicate from a cancellation.
			current, readErr := repo.FindByID(ctx, orderID)
			if readErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, readErr, "failed to re-read order")
			}
			if current.Status == enums.OrderStatusDelivered {
				order = current
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order reached a terminal status concurrently")
		}

		record, txErr := s.stock.FindOrCreateTx(ctx, tx, order.WarehouseID, order.ProductID)
		if txErr != nil {
			return txErr
		}
		received := order.RequestedQuantity
		if actualQuantity != nil {
			received = *actualQuantity
		}
		reason := fmt.Sprintf("purchase order delivery (order %s)", order.ID)
		if _, txErr = s.stock.AddStockTx(ctx, tx, record.ID, received, reason); txErr != nil {
			return txErr
		}

		order.Status = enums.OrderStatusDelivered
		order.ActualDeliveryDate = &deliveredAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyUpdate(ctx, order, fmt.Sprintf("purchase order %s delivered, stock credited", order.ID))
	return order, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	return s.SetStatus(ctx, orderID, enums.OrderStatusCancelled)
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load purchase order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]models.PurchaseOrder, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list purchase orders")
	}
	return orders, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.PurchaseOrder, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list purchase orders")
	}
	return orders, nil
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.PurchaseOrder, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	orders, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list purchase orders")
	}
	return orders, nil
}

func (s *service) notifyUpdate(ctx context.Context, order *models.PurchaseOrder, message string) {
	if err := s.notifier.NotifyOrderUpdate(ctx, order, message); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", order.ID.String()), "order update notification failed: "+err.Error())
	}
}

func validateTransition(from, to enums.OrderStatus) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and can no longer change", from))
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func terminalStatuses() []enums.OrderStatus {
	return []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled}
}
