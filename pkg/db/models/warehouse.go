package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Warehouse is master data; inventory records reference it by id.
type Warehouse struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Type        enums.WarehouseType `gorm:"column:type;type:text;not null;default:'MAIN'"`
	Location    string              `gorm:"column:location;not null"`
	Description string              `gorm:"column:description"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Warehouse) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
