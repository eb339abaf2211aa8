package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// InventoryEvent records one immutable entry on the inventory audit trail.
// Rows are only ever inserted; corrections are modeled as new compensating
// events.
type InventoryEvent struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	InventoryID      uuid.UUID                `gorm:"column:inventory_id;type:uuid;not null;index"`
	ProductID        uuid.UUID                `gorm:"column:product_id;type:uuid;not null;index"`
	WarehouseID      uuid.UUID                `gorm:"column:warehouse_id;type:uuid;not null;index"`
	EventType        enums.InventoryEventType `gorm:"column:event_type;type:text;not null;index"`
	PreviousQuantity float64                  `gorm:"column:previous_quantity;not null"`
	NewQuantity      float64                  `gorm:"column:new_quantity;not null"`
	Timestamp        time.Time                `gorm:"column:timestamp;not null;index"`
	Metadata         json.RawMessage          `gorm:"column:metadata;type:jsonb"`
}

func (e *InventoryEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
