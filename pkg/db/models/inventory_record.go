package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMinimumThreshold applies to records created on first delivery.
const DefaultMinimumThreshold = 10

// DefaultLocation is assigned until a record is moved somewhere explicit.
const DefaultLocation = "unassigned"

// InventoryRecord holds the current stock position for one product in one
// warehouse. Quantity is only mutated through the inventory ledger service;
// Version backs the optimistic concurrency check on every mutation.
type InventoryRecord struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	WarehouseID      uuid.UUID  `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:uq_inventory_warehouse_product"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_inventory_warehouse_product"`
	Location         string     `gorm:"column:location;not null;default:'unassigned'"`
	Quantity         float64    `gorm:"column:quantity;not null;default:0"`
	MinimumThreshold float64    `gorm:"column:minimum_threshold;not null;default:10"`
	ExpiryDate       *time.Time `gorm:"column:expiry_date"`
	Version          int64      `gorm:"column:version;not null;default:0"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *InventoryRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
