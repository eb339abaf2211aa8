package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// OpenOrderConstraint names the partial unique index that enforces one open
// purchase order per (product, warehouse).
const OpenOrderConstraint = "uq_purchase_orders_open"

// PurchaseOrder is a replenishment request for a product at a warehouse.
// Status transitions are owned by the orders service.
type PurchaseOrder struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID           uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null;index"`
	ProductID            uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	WarehouseID          uuid.UUID         `gorm:"column:warehouse_id;type:uuid;not null;index"`
	RequestedBy          uuid.UUID         `gorm:"column:requested_by;type:uuid;not null"`
	RequestedQuantity    float64           `gorm:"column:requested_quantity;not null"`
	UnitPrice            decimal.Decimal   `gorm:"column:unit_price;type:numeric(14,4);not null"`
	TotalAmount          decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,4);not null"`
	Status               enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING';index"`
	OrderType            enums.OrderType   `gorm:"column:order_type;type:text;not null"`
	Notes                *string           `gorm:"column:notes"`
	RequestedAt          time.Time         `gorm:"column:requested_at;not null"`
	ExpectedDeliveryDate *time.Time        `gorm:"column:expected_delivery_date"`
	ActualDeliveryDate   *time.Time        `gorm:"column:actual_delivery_date"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *PurchaseOrder) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
